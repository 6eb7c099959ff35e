package hammer

import (
	"sort"
	"strconv"

	"github.com/gotolive/hammer/rtc/jingle"
	"github.com/gotolive/hammer/rtc/logger"
	"github.com/gotolive/hammer/rtc/media"
)

const (
	paramCname   = "cname"
	paramMsid    = "msid"
	paramMslabel = "mslabel"
	paramLabel   = "label"
)

// AttachSources announces the ssrc of every stream in the content of the
// same name, as a source element and as the legacy ssrc element. Names
// present on one side only are skipped. A nil ids uses UUIDSource.
func AttachSources(contents map[string]*jingle.Content, streams map[string]*media.MediaStream, ids IDSource, cname string) {
	if ids == nil {
		ids = UUIDSource{}
	}
	names := make([]string, 0, len(contents))
	for name := range contents {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		content, stream := contents[name], streams[name]
		if content == nil || stream == nil {
			continue
		}
		if content.Description == nil {
			logger.Debug("content without description:", name)
			content.Description = &jingle.Description{Media: stream.Kind()}
		}
		ssrc := strconv.FormatUint(uint64(stream.SSRC()), 10)
		content.Description.SSRC = ssrc
		addSource(content.Description, ssrc, ids.NewID(), ids.NewID(), cname)
		stream.SetCname(cname)
	}
}

func addSource(description *jingle.Description, ssrc, msLabel, label, cname string) {
	msid := msLabel + " " + label
	description.Sources = append(description.Sources, &jingle.Source{
		SSRC: ssrc,
		Parameters: []*jingle.Parameter{
			{Name: paramCname, Value: cname},
			{Name: paramMsid, Value: msid},
			{Name: paramMslabel, Value: msLabel},
			{Name: paramLabel, Value: label},
		},
	})
	description.LegacySSRCs = append(description.LegacySSRCs, &jingle.LegacySource{
		Cname:   cname,
		Msid:    msid,
		Mslabel: msLabel,
		Label:   label,
		SSRC:    ssrc,
	})
}
