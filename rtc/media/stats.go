package media

import (
	"math"
	"sync"
	"time"
)

const (
	rateWindowMs = 1000
	rateScale    = 8000 // bytes per ms to bits per second
)

// rateStatistics is a sliding window bitrate counter.
type rateStatistics struct {
	m                sync.Mutex
	accumulatedCount int64 // byte count
	overflow         bool
	numSamples       int
	firstTimestamp   int64
	windowSizeMs     int64
	buckets          []bucket // grouped by ms
	scale            float64
}

type bucket struct {
	timestamp  int64
	sum        int64
	numSamples int
}

func newRateStatistics(windowSizeMs int64, scale float64) *rateStatistics {
	return &rateStatistics{
		windowSizeMs:   windowSizeMs,
		scale:          scale,
		firstTimestamp: -1,
	}
}

// Rate returns bits per second over the window, ok is false until enough samples arrived.
func (r *rateStatistics) Rate(nowMs int64) (int64, bool) {
	r.m.Lock()
	defer r.m.Unlock()
	r.eraseOld(nowMs)
	var activeWindowSize int64
	if r.firstTimestamp != -1 {
		if r.firstTimestamp <= nowMs-r.windowSizeMs {
			activeWindowSize = r.windowSizeMs
		} else {
			activeWindowSize = nowMs - r.firstTimestamp + 1
		}
	}
	if r.numSamples == 0 || activeWindowSize <= 1 || (r.numSamples <= 1 && activeWindowSize < r.windowSizeMs) || r.overflow {
		return 0, false
	}
	result := float64(r.accumulatedCount)*r.scale/float64(activeWindowSize) + 0.5
	if result > math.MaxInt64 {
		return 0, false
	}
	return int64(result), true
}

func (r *rateStatistics) Update(size int64, nowMs int64) {
	r.m.Lock()
	defer r.m.Unlock()
	r.eraseOld(nowMs)
	if r.firstTimestamp == -1 || r.numSamples == 0 {
		r.firstTimestamp = nowMs
	}
	last := len(r.buckets) - 1
	if last < 0 || nowMs != r.buckets[last].timestamp {
		if last >= 0 && nowMs < r.buckets[last].timestamp {
			nowMs = r.buckets[last].timestamp
		}
		r.buckets = append(r.buckets, bucket{timestamp: nowMs})
	}
	b := &r.buckets[len(r.buckets)-1]
	b.sum += size
	b.numSamples++
	if math.MaxInt64-r.accumulatedCount > size {
		r.accumulatedCount += size
	} else {
		r.overflow = true
	}
	r.numSamples++
}

func (r *rateStatistics) eraseOld(nowMs int64) {
	newOldestTime := nowMs - r.windowSizeMs + 1
	var i int
	for ; i < len(r.buckets); i++ {
		if r.buckets[i].timestamp >= newOldestTime {
			break
		}
		r.accumulatedCount -= r.buckets[i].sum
		r.numSamples -= r.buckets[i].numSamples
	}
	r.buckets = r.buckets[i:]
}

// Stats counts what a stream sent.
type Stats struct {
	mu          sync.Mutex
	packetsSent int64
	bytesSent   int64
	resent      int64
	lastRTPTime uint32
	lastSentMs  int64
	sendBps     *rateStatistics
}

func newStats() *Stats {
	return &Stats{sendBps: newRateStatistics(rateWindowMs, rateScale)}
}

func (s *Stats) outgoing(size int, rtpTime uint32, now time.Time) {
	ms := now.UnixMilli()
	s.mu.Lock()
	s.packetsSent++
	s.bytesSent += int64(size)
	s.lastRTPTime = rtpTime
	s.lastSentMs = ms
	s.mu.Unlock()
	s.sendBps.Update(int64(size), ms)
}

func (s *Stats) PacketsSent() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.packetsSent
}

func (s *Stats) BytesSent() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bytesSent
}

func (s *Stats) resend(n int) {
	s.mu.Lock()
	s.resent += int64(n)
	s.mu.Unlock()
}

// PacketsResent counts retransmissions answering nacks, they are not part of PacketsSent.
func (s *Stats) PacketsResent() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resent
}

// SentBPS is 0 while the window is still filling.
func (s *Stats) SentBPS(nowMs int64) int64 {
	bps, _ := s.sendBps.Rate(nowMs)
	return bps
}

func (s *Stats) last() (uint32, int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastRTPTime, s.lastSentMs
}
