package codec

import (
	"fmt"
	"strings"

	"github.com/gotolive/hammer/rtc"
	"github.com/gotolive/hammer/rtc/jingle"
)

// PayloadTypeUnknown marks a format whose payload type has to come from a registry.
const PayloadTypeUnknown uint8 = 0xff

const (
	EncodingOpus = "opus"
	EncodingPCMU = "PCMU"
	EncodingPCMA = "PCMA"
	EncodingVP8  = "VP8"
	EncodingVP9  = "VP9"
	EncodingH264 = "H264"
	EncodingRED  = "red"
	EncodingRTX  = "rtx"
)

// Format is one codec as offered in a description.
type Format struct {
	MediaType   string
	Encoding    string
	ClockRate   uint32
	Channels    uint16
	PayloadType uint8
	Parameters  map[string]string
}

func (f *Format) String() string {
	if f.Channels > 1 {
		return fmt.Sprintf("%s/%d/%d", f.Encoding, f.ClockRate, f.Channels)
	}
	return fmt.Sprintf("%s/%d", f.Encoding, f.ClockRate)
}

// Matches compares encoding case-insensitively plus clock rate.
func (f *Format) Matches(o *Format) bool {
	return strings.EqualFold(f.Encoding, o.Encoding) && f.ClockRate == o.ClockRate
}

func Register(format *Format) {
	// we do not check the duplicated codec
	allCodecs[strings.ToLower(format.Encoding)] = format
}

var allCodecs = map[string]*Format{}

func init() {
	Register(&Format{MediaType: rtc.MediaTypeAudio, Encoding: EncodingOpus, ClockRate: 48000, Channels: 2, PayloadType: PayloadTypeUnknown})
	Register(&Format{MediaType: rtc.MediaTypeAudio, Encoding: EncodingPCMU, ClockRate: 8000, Channels: 1, PayloadType: 0})
	Register(&Format{MediaType: rtc.MediaTypeAudio, Encoding: EncodingPCMA, ClockRate: 8000, Channels: 1, PayloadType: 8})
	Register(&Format{MediaType: rtc.MediaTypeVideo, Encoding: EncodingVP8, ClockRate: 90000, PayloadType: PayloadTypeUnknown})
	Register(&Format{MediaType: rtc.MediaTypeVideo, Encoding: EncodingVP9, ClockRate: 90000, PayloadType: PayloadTypeUnknown})
	Register(&Format{MediaType: rtc.MediaTypeVideo, Encoding: EncodingH264, ClockRate: 90000, PayloadType: PayloadTypeUnknown})
	Register(&Format{MediaType: rtc.MediaTypeVideo, Encoding: EncodingRED, ClockRate: 90000, PayloadType: PayloadTypeUnknown})
}

// Lookup returns a copy of the registered format for an encoding name.
func Lookup(encoding string) (*Format, bool) {
	f, ok := allCodecs[strings.ToLower(encoding)]
	if !ok {
		return nil, false
	}
	c := *f
	return &c, true
}

// FromPayloadType converts an offered payload type into a Format.
func FromPayloadType(media string, pt *jingle.PayloadType) *Format {
	f := &Format{
		MediaType:   media,
		Encoding:    pt.Name,
		ClockRate:   pt.ClockRate,
		Channels:    pt.Channels,
		PayloadType: pt.ID,
	}
	if len(pt.Parameters) != 0 {
		f.Parameters = make(map[string]string, len(pt.Parameters))
		for _, p := range pt.Parameters {
			f.Parameters[p.Name] = p.Value
		}
	}
	return f
}

// FormatsFromDescription keeps the offer order, it matters for Select.
func FormatsFromDescription(d *jingle.Description) []*Format {
	if d == nil {
		return nil
	}
	formats := make([]*Format, 0, len(d.PayloadTypes))
	for _, pt := range d.PayloadTypes {
		formats = append(formats, FromPayloadType(d.Media, pt))
	}
	return formats
}
