// Package media holds the runtime side of a negotiated content: one MediaStream
// per kind, bound to a mux endpoint and sending rtp and rtcp to a target.
package media

import (
	"context"
	"errors"
	"net"
	"sync"
	"time"

	"github.com/gotolive/hammer/rtc"
	"github.com/gotolive/hammer/rtc/codec"
	"github.com/gotolive/hammer/rtc/logger"
	"github.com/pion/randutil"
	"github.com/pion/rtcp"
	"github.com/pion/rtp"
)

const ntpEpoch = 2208988800

// Engine runs the dtls handshake shared by the streams of a session.
type Engine interface {
	Start(ctx context.Context, conn net.Conn) error
}

// Protector encrypts outgoing packets, *dtls.SrtpSession implements it.
type Protector interface {
	EncryptRtp(dst, packet []byte) ([]byte, error)
	EncryptRtcp(dst, packet []byte) ([]byte, error)
}

type MediaStream struct {
	kind   string
	ssrc   uint32
	engine Engine
	stats  *Stats
	sent   *history

	mu           sync.RWMutex
	name         string
	format       *codec.Format
	direction    rtc.Direction
	dynamicTypes map[uint8]string
	extensions   []rtc.HeaderExtension
	connector    *Connector
	target       *Target
	protector    Protector
	seq          uint16
	cname        string
}

// NewMediaStream creates an unbound stream, the sequence number starts at random.
func NewMediaStream(kind string, ssrc uint32, engine Engine) *MediaStream {
	return &MediaStream{
		kind:         kind,
		ssrc:         ssrc,
		engine:       engine,
		stats:        newStats(),
		sent:         newHistory(defaultHistorySize),
		name:         kind,
		direction:    rtc.DirectionSendRecv,
		dynamicTypes: map[uint8]string{},
		seq:          uint16(randutil.NewMathRandomGenerator().Intn(1 << 16)),
	}
}

func (s *MediaStream) Kind() string {
	return s.kind
}

func (s *MediaStream) SSRC() uint32 {
	return s.ssrc
}

func (s *MediaStream) Engine() Engine {
	return s.engine
}

func (s *MediaStream) Stats() *Stats {
	return s.stats
}

func (s *MediaStream) Name() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.name
}

func (s *MediaStream) SetName(name string) {
	s.mu.Lock()
	s.name = name
	s.mu.Unlock()
}

func (s *MediaStream) Format() *codec.Format {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.format
}

func (s *MediaStream) SetFormat(format *codec.Format) {
	s.mu.Lock()
	s.format = format
	s.mu.Unlock()
}

func (s *MediaStream) Direction() rtc.Direction {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.direction
}

func (s *MediaStream) SetDirection(direction rtc.Direction) {
	s.mu.Lock()
	s.direction = direction
	s.mu.Unlock()
}

func (s *MediaStream) Cname() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cname
}

// SetCname is announced in the sdes chunk of sender reports.
func (s *MediaStream) SetCname(cname string) {
	s.mu.Lock()
	s.cname = cname
	s.mu.Unlock()
}

// AddDynamicPayloadType maps pt to an encoding name, a later call for the same pt wins.
func (s *MediaStream) AddDynamicPayloadType(pt uint8, encoding string) {
	s.mu.Lock()
	s.dynamicTypes[pt] = encoding
	s.mu.Unlock()
}

func (s *MediaStream) DynamicPayloadTypes() map[uint8]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	res := make(map[uint8]string, len(s.dynamicTypes))
	for k, v := range s.dynamicTypes {
		res[k] = v
	}
	return res
}

// AddRTPExtension replaces an extension with the same uri.
func (s *MediaStream) AddRTPExtension(ext rtc.HeaderExtension) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, e := range s.extensions {
		if e.URI == ext.URI {
			s.extensions[i] = ext
			return
		}
	}
	s.extensions = append(s.extensions, ext)
}

func (s *MediaStream) RTPExtensions() []rtc.HeaderExtension {
	s.mu.RLock()
	defer s.mu.RUnlock()
	res := make([]rtc.HeaderExtension, len(s.extensions))
	copy(res, s.extensions)
	return res
}

func (s *MediaStream) SetConnector(connector *Connector) {
	s.mu.Lock()
	s.connector = connector
	s.mu.Unlock()
}

func (s *MediaStream) Connector() *Connector {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.connector
}

func (s *MediaStream) SetTarget(target *Target) {
	s.mu.Lock()
	s.target = target
	s.mu.Unlock()
}

func (s *MediaStream) Target() *Target {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.target
}

// SetProtector enables srtp, without one packets go out in the clear.
func (s *MediaStream) SetProtector(protector Protector) {
	s.mu.Lock()
	s.protector = protector
	s.mu.Unlock()
}

// StartHandshake runs the engine over this stream's endpoint, only the stream
// whose filter accepts dtls can complete it.
func (s *MediaStream) StartHandshake(ctx context.Context) error {
	if s.engine == nil {
		return ErrNoEngine
	}
	s.mu.RLock()
	connector, target := s.connector, s.target
	s.mu.RUnlock()
	if connector == nil || connector.Data == nil || target == nil {
		return ErrNotBound
	}
	return s.engine.Start(ctx, connector.Data.Conn(target.Data))
}

// WriteRTP packs payload with the next sequence number and sends it to the target.
func (s *MediaStream) WriteRTP(payload []byte, timestamp uint32, marker bool) error {
	s.mu.Lock()
	if !s.direction.AllowsSending() {
		s.mu.Unlock()
		return ErrNotSending
	}
	if s.format == nil {
		s.mu.Unlock()
		return ErrNoFormat
	}
	if !s.bound() {
		s.mu.Unlock()
		return ErrNotBound
	}
	packet := &rtp.Packet{
		Header: rtp.Header{
			Version:        2,
			Marker:         marker,
			PayloadType:    s.format.PayloadType,
			SequenceNumber: s.seq,
			Timestamp:      timestamp,
			SSRC:           s.ssrc,
		},
		Payload: payload,
	}
	s.seq++
	s.mu.Unlock()

	raw, err := packet.Marshal()
	if err != nil {
		return err
	}
	s.sent.put(packet.SequenceNumber, raw)
	if err = s.sendRTP(raw); err != nil {
		return err
	}
	s.stats.outgoing(len(raw), timestamp, time.Now())
	return nil
}

// bound must be called with mu held.
func (s *MediaStream) bound() bool {
	return s.connector != nil && s.connector.Data != nil && s.target != nil && s.target.Data != nil
}

func (s *MediaStream) sendRTP(raw []byte) error {
	s.mu.RLock()
	if !s.bound() {
		s.mu.RUnlock()
		return ErrNotBound
	}
	endpoint, addr, protector := s.connector.Data, s.target.Data, s.protector
	s.mu.RUnlock()
	if protector != nil {
		var err error
		if raw, err = protector.EncryptRtp(nil, raw); err != nil {
			return err
		}
	}
	_, err := endpoint.WriteTo(raw, addr)
	return err
}

// HandleNack resends what is still in the history, it returns how many packets went out.
// A closed stream resends nothing.
func (s *MediaStream) HandleNack(report *rtcp.TransportLayerNack) int {
	if report.MediaSSRC != s.ssrc {
		return 0
	}
	var n int
	for _, raw := range s.sent.lost(report) {
		if err := s.sendRTP(raw); err != nil {
			if errors.Is(err, ErrNotBound) {
				break
			}
			logger.Warn("resend rtp fail:", err)
			continue
		}
		n++
	}
	s.stats.resend(n)
	return n
}

// SenderReport returns nil until a packet was sent.
func (s *MediaStream) SenderReport(now time.Time) rtcp.Packet {
	if s.stats.PacketsSent() == 0 {
		return nil
	}
	lastRTPTime, lastMs := s.stats.last()
	var clockRate int64
	if format := s.Format(); format != nil {
		clockRate = int64(format.ClockRate)
	}
	ms := now.UnixMilli()
	diffTimestamp := (ms - lastMs) * clockRate / 1000
	return &rtcp.SenderReport{
		SSRC:        s.ssrc,
		NTPTime:     timeToNtp(ms),
		RTPTime:     lastRTPTime + uint32(diffTimestamp),
		PacketCount: uint32(s.stats.PacketsSent()),
		OctetCount:  uint32(s.stats.BytesSent()),
	}
}

// SendSenderReport sends a compound sender report plus sdes, a no-op before the first packet.
func (s *MediaStream) SendSenderReport(now time.Time) error {
	report := s.SenderReport(now)
	if report == nil {
		return nil
	}
	s.mu.RLock()
	connector, target, protector, cname := s.connector, s.target, s.protector, s.cname
	s.mu.RUnlock()
	if connector == nil || target == nil {
		return ErrNotBound
	}
	packets := []rtcp.Packet{report}
	if cname != "" {
		packets = append(packets, &rtcp.SourceDescription{
			Chunks: []rtcp.SourceDescriptionChunk{{
				Source: s.ssrc,
				Items:  []rtcp.SourceDescriptionItem{{Type: rtcp.SDESCNAME, Text: cname}},
			}},
		})
	}
	raw, err := rtcp.Marshal(packets)
	if err != nil {
		return err
	}
	if protector != nil {
		if raw, err = protector.EncryptRtcp(nil, raw); err != nil {
			return err
		}
	}
	endpoint, addr := rtcpPath(connector, target)
	if endpoint == nil || addr == nil {
		return ErrNotBound
	}
	_, err = endpoint.WriteTo(raw, addr)
	return err
}

// Close releases the endpoints when the connector owns them.
func (s *MediaStream) Close() error {
	s.mu.Lock()
	connector := s.connector
	s.connector = nil
	s.mu.Unlock()
	return connector.close()
}

func timeToNtp(unixMilli int64) uint64 {
	// Unix time starts from 1970, NTP time starts from 1900
	seconds := uint64(unixMilli/1000 + ntpEpoch)
	fractional := uint64((unixMilli % 1000) * (1 << 32) / 1000)
	return seconds<<32 | fractional
}
