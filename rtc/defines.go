package rtc

import (
	"errors"
	"strings"
)

const (
	MediaTypeAudio = "audio"
	MediaTypeVideo = "video"
	MediaTypeData  = "data"
)

var ErrUnknownType = errors.New("unknown kind, only support MediaTypeAudio, MediaTypeVideo and MediaTypeData")

// ParseMediaType normalizes a media kind, it returns ErrUnknownType for anything else.
func ParseMediaType(kind string) (string, error) {
	switch strings.ToLower(kind) {
	case MediaTypeAudio:
		return MediaTypeAudio, nil
	case MediaTypeVideo:
		return MediaTypeVideo, nil
	case MediaTypeData:
		return MediaTypeData, nil
	}
	return "", ErrUnknownType
}

// Direction of media flow on a stream, named after the sdp attributes.
type Direction string

const (
	DirectionSendRecv Direction = "sendrecv"
	DirectionSendOnly Direction = "sendonly"
	DirectionRecvOnly Direction = "recvonly"
	DirectionInactive Direction = "inactive"
)

func (d Direction) AllowsSending() bool {
	return d == DirectionSendRecv || d == DirectionSendOnly
}

func (d Direction) AllowsReceiving() bool {
	return d == DirectionSendRecv || d == DirectionRecvOnly
}
