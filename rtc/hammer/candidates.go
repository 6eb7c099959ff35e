package hammer

import (
	"strconv"

	"github.com/gotolive/hammer/rtc/ice"
	"github.com/gotolive/hammer/rtc/jingle"
	"github.com/gotolive/hammer/rtc/logger"
)

// MergeRemoteCandidates adds the remote candidates of every transport to the
// agent stream. Remote credentials are taken from the first transport.
// Candidates of another generation or without address are dropped, it does
// not start any check.
func MergeRemoteCandidates(agent Agent, contents []*jingle.Content) error {
	var stream *ice.Stream
	for _, content := range contents {
		transport := content.Transport
		if transport == nil {
			continue
		}
		if stream == nil {
			if stream = agent.Stream(StreamName); stream == nil {
				logger.Error("Unable to find ice stream:", StreamName)
				return ErrStreamNotFound
			}
			stream.SetRemotePassword(transport.Pwd)
			stream.SetRemoteUfrag(transport.Ufrag)
		}

		for _, c := range jingle.SortCandidates(transport.Candidates) {
			mergeCandidate(agent, stream, content.Name, c)
		}
	}
	return nil
}

func mergeCandidate(agent Agent, stream *ice.Stream, content string, c *jingle.Candidate) {
	component := stream.Component(c.Component)
	if component == nil {
		logger.Info("no component", c.Component, "for candidate of", content)
		return
	}
	if c.Generation != agent.Generation() {
		logger.Debug("stale candidate generation:", c.Generation)
		return
	}
	if c.IP == "" || c.Port <= 0 {
		logger.Debug("drop candidate without address:", c.Foundation)
		return
	}
	typ, ok := ice.ParseCandidateType(string(c.Type))
	if !ok {
		logger.Debug("drop candidate with unknown type:", c.Type)
		return
	}

	protocol := c.NormalizedProtocol()
	remote := &ice.Candidate{
		Address:    ice.NewTransportAddress(c.IP, c.Port, protocol),
		Type:       typ,
		Foundation: c.Foundation,
		Priority:   c.Priority,
		Generation: c.Generation,
	}
	if c.HasRelated() {
		// the base may not be known yet, linking is best effort
		remote.Related = component.FindRemoteCandidate(ice.NewTransportAddress(c.RelAddr, c.RelPort, protocol))
	}
	component.AddRemoteCandidate(remote)
}

// ExportLocalCandidates gives every content a transport with the local
// credentials and all local candidates. Candidate ids count up across the
// whole call. The transport is set even when there is no candidate yet.
func ExportLocalCandidates(agent Agent, contents []*jingle.Content) {
	stream := agent.Stream(StreamName)
	var id int
	for _, content := range contents {
		transport := &jingle.Transport{
			Ufrag: agent.LocalUfrag(),
			Pwd:   agent.LocalPassword(),
		}
		if stream != nil {
			for _, component := range stream.Components() {
				for _, local := range component.LocalCandidates() {
					transport.AddCandidate(localCandidate(local, component.ID(), agent.Generation(), id))
					id++
				}
			}
		}
		content.Transport = transport
	}
}

func localCandidate(local *ice.Candidate, component, generation, id int) *jingle.Candidate {
	c := &jingle.Candidate{
		Component:  component,
		Foundation: local.Foundation,
		Generation: generation,
		ID:         strconv.Itoa(id),
		IP:         local.Address.IP,
		Network:    0,
		Port:       local.Address.Port,
		Priority:   local.Priority,
		Protocol:   local.Address.Protocol,
		Type:       jingle.CandidateType(local.Type),
	}
	if related, ok := local.RelatedAddress(); ok {
		c.RelAddr = related.IP
		c.RelPort = related.Port
	}
	return c
}
