package hammer

import (
	"errors"
	"sort"

	"github.com/gotolive/hammer/rtc"
	"github.com/gotolive/hammer/rtc/codec"
	"github.com/gotolive/hammer/rtc/jingle"
	"github.com/gotolive/hammer/rtc/logger"
	"github.com/gotolive/hammer/rtc/media"
)

// redPayloadType is what the relay uses for red, registered on video so those packets are known.
const redPayloadType uint8 = 116

// CreateMediaStreams returns an audio and a video stream keyed by kind,
// sharing engine. Everything else is configured later.
func CreateMediaStreams(engine HandshakeEngine) map[string]*media.MediaStream {
	audioSSRC := rtc.GenerateSSRC()
	videoSSRC := rtc.GenerateSSRC()
	for videoSSRC == audioSSRC {
		videoSSRC = rtc.GenerateSSRC()
	}
	return map[string]*media.MediaStream{
		rtc.MediaTypeAudio: media.NewMediaStream(rtc.MediaTypeAudio, audioSSRC, engine),
		rtc.MediaTypeVideo: media.NewMediaStream(rtc.MediaTypeVideo, videoSSRC, engine),
	}
}

// ConfigureMediaStreams sets the format of every stream named in formats and
// makes it sendonly. Formats without a static payload type get one from
// ptRegistry, offered extensions get their id from extRegistry. Missing
// formats or streams are skipped, a registry failure is returned once every
// stream was tried.
func ConfigureMediaStreams(
	streams map[string]*media.MediaStream,
	formats map[string]*codec.Format,
	extensions map[string][]rtc.HeaderExtension,
	ptRegistry *codec.PayloadTypeRegistry,
	extRegistry *rtc.HeaderExtensionRegistry,
) error {
	names := make([]string, 0, len(formats))
	for name := range formats {
		names = append(names, name)
	}
	sort.Strings(names)

	var errs []error
	for _, name := range names {
		format := formats[name]
		if format == nil {
			continue
		}
		stream := streams[name]
		if stream == nil {
			logger.Warn("no media stream for format of", name)
			continue
		}

		selected := *format
		if selected.PayloadType == codec.PayloadTypeUnknown {
			pt, err := ptRegistry.PayloadType(format)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			selected.PayloadType = pt
			stream.AddDynamicPayloadType(pt, format.Encoding)
		}
		stream.SetFormat(&selected)
		stream.SetName(name)
		// sending only, the client never renders what the relay sends back
		stream.SetDirection(rtc.DirectionSendOnly)

		for _, ext := range extensions[name] {
			id, err := extRegistry.Mapping(ext.URI)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			stream.AddRTPExtension(rtc.HeaderExtension{URI: ext.URI, ID: id})
		}

		if selected.MediaType == rtc.MediaTypeVideo {
			stream.AddDynamicPayloadType(redPayloadType, codec.EncodingRED)
		}
	}
	return errors.Join(errs...)
}

// DataContent is a bare data content, senders is left out when it is both.
func DataContent(creator jingle.Creator, senders jingle.Senders) *jingle.Content {
	content := &jingle.Content{
		Creator:     creator,
		Name:        rtc.MediaTypeData,
		Description: &jingle.Description{Media: rtc.MediaTypeData},
	}
	if senders != "" && senders != jingle.SendersBoth {
		content.Senders = senders
	}
	return content
}
