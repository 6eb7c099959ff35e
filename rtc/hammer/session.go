package hammer

import (
	"context"
	"errors"
	"sort"

	"github.com/gotolive/hammer/rtc"
	"github.com/gotolive/hammer/rtc/codec"
	"github.com/gotolive/hammer/rtc/jingle"
	"github.com/gotolive/hammer/rtc/media"
)

type SessionOption struct {
	// IDs defaults to UUIDSource.
	IDs IDSource
	// CNAME defaults to DefaultCNAME.
	CNAME string
	// Policy defaults to FirstRegistrantDTLS.
	Policy DemuxPolicy
}

// Session drives the phases of one negotiation in order:
// Accept the remote offer, Describe the answer, Bind once ice connected and
// finally Handshake.
type Session struct {
	agent   Agent
	engine  HandshakeEngine
	streams map[string]*media.MediaStream
	ids     IDSource
	cname   string
	policy  DemuxPolicy

	payloadTypes *codec.PayloadTypeRegistry
	extensions   *rtc.HeaderExtensionRegistry

	remote []*jingle.Content
	setup  jingle.Setup
	bound  map[string]BindResult
}

// NewSession creates the audio and video streams of the session.
func NewSession(agent Agent, engine HandshakeEngine, option SessionOption) *Session {
	if option.IDs == nil {
		option.IDs = UUIDSource{}
	}
	if option.CNAME == "" {
		option.CNAME = DefaultCNAME
	}
	return &Session{
		agent:        agent,
		engine:       engine,
		streams:      CreateMediaStreams(engine),
		ids:          option.IDs,
		cname:        option.CNAME,
		policy:       option.Policy,
		payloadTypes: codec.NewPayloadTypeRegistry(),
		extensions:   rtc.NewHeaderExtensionRegistry(),
	}
}

func (s *Session) Streams() map[string]*media.MediaStream {
	return s.streams
}

// Setup is our dtls role, SetupNone until a fingerprint was accepted.
func (s *Session) Setup() jingle.Setup {
	return s.setup
}

// Accept merges the remote candidates, commits the remote fingerprints and
// configures the streams with the offered formats. The fingerprints are
// committed even when merging fails, the streams then stay unconfigured.
func (s *Session) Accept(remote []*jingle.Content) error {
	mergeErr := MergeRemoteCandidates(s.agent, remote)
	s.setup = IngestRemoteFingerprints(s.engine, remote)
	if mergeErr != nil {
		return mergeErr
	}
	s.remote = remote
	formats, extensions := s.offer(remote)
	return ConfigureMediaStreams(s.streams, formats, extensions, s.payloadTypes, s.extensions)
}

// offer selects one format per media content and learns the remote payload
// types and extension ids, our answer reuses them.
func (s *Session) offer(remote []*jingle.Content) (map[string]*codec.Format, map[string][]rtc.HeaderExtension) {
	formats := map[string]*codec.Format{}
	extensions := map[string][]rtc.HeaderExtension{}
	for _, content := range remote {
		description := content.Description
		if description == nil {
			continue
		}
		offered := codec.FormatsFromDescription(description)
		s.payloadTypes.LearnAll(offered)
		if f := codec.Select(description.Media, offered); f != nil {
			formats[content.Name] = f
		}
		for _, hdr := range description.HdrExts {
			ext := rtc.HeaderExtension{URI: hdr.URI, ID: rtc.HeaderExtensionID(hdr.ID)}
			s.extensions.Learn(ext)
			extensions[content.Name] = append(extensions[content.Name], ext)
		}
	}
	return formats, extensions
}

// Describe builds the answer contents: selected formats, local candidates,
// our fingerprint and the sources of every stream.
func (s *Session) Describe() []*jingle.Content {
	contents := make([]*jingle.Content, 0, len(s.remote))
	for _, remote := range s.remote {
		contents = append(contents, s.answerContent(remote))
	}
	ExportLocalCandidates(s.agent, contents)
	ExportLocalFingerprint(s.engine, s.setup, contents)
	AttachSources(jingle.ContentMap(contents), s.streams, s.ids, s.cname)
	return contents
}

func (s *Session) answerContent(remote *jingle.Content) *jingle.Content {
	if remote.Description != nil && remote.Description.Media == rtc.MediaTypeData {
		content := DataContent(remote.Creator, remote.Senders)
		content.Name = remote.Name
		return content
	}
	content := &jingle.Content{
		Creator: remote.Creator,
		Name:    remote.Name,
		Senders: remote.Senders,
	}
	if remote.Description == nil {
		return content
	}
	description := &jingle.Description{Media: remote.Description.Media}
	if stream := s.streams[remote.Name]; stream != nil {
		if f := stream.Format(); f != nil {
			description.PayloadTypes = append(description.PayloadTypes, payloadType(f))
		}
		for _, ext := range stream.RTPExtensions() {
			description.HdrExts = append(description.HdrExts, &jingle.RTPHdrExt{ID: uint8(ext.ID), URI: ext.URI})
		}
	}
	content.Description = description
	return content
}

func payloadType(f *codec.Format) *jingle.PayloadType {
	pt := &jingle.PayloadType{
		ID:        f.PayloadType,
		Name:      f.Encoding,
		ClockRate: f.ClockRate,
		Channels:  f.Channels,
	}
	names := make([]string, 0, len(f.Parameters))
	for name := range f.Parameters {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		pt.Parameters = append(pt.Parameters, &jingle.Parameter{Name: name, Value: f.Parameters[name]})
	}
	return pt
}

// Bind shares the selected socket between the streams, see BindConnectors.
func (s *Session) Bind() (map[string]BindResult, error) {
	results, err := BindConnectors(s.agent, s.streams, BindOptions{Policy: s.policy})
	if err != nil {
		return nil, err
	}
	s.bound = results
	return results, nil
}

// Handshake runs dtls on the stream that received the handshake filter.
func (s *Session) Handshake(ctx context.Context) error {
	for name, result := range s.bound {
		if result.Handshake && result.Bound() {
			return s.streams[name].StartHandshake(ctx)
		}
	}
	return media.ErrNotBound
}

// Close releases every stream connector.
func (s *Session) Close() error {
	var errs []error
	for _, stream := range s.streams {
		if err := stream.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
