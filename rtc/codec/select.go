package codec

import (
	"strings"

	"github.com/gotolive/hammer/rtc"
)

var preferredEncodings = map[string]string{
	rtc.MediaTypeAudio: EncodingOpus,
	rtc.MediaTypeVideo: EncodingVP8,
}

// Select picks the preferred format of a kind from an offer: opus for audio, vp8 for video.
// Without the preferred encoding the first offered format wins, peers rely on that.
// Other kinds and an empty offer give nil.
func Select(kind string, formats []*Format) *Format {
	preferred, ok := preferredEncodings[strings.ToLower(kind)]
	if !ok || len(formats) == 0 {
		return nil
	}
	for _, f := range formats {
		if strings.EqualFold(f.Encoding, preferred) {
			return f
		}
	}
	return formats[0]
}
