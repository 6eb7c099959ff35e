package media

import (
	"sync"

	"github.com/pion/rtcp"
)

const defaultHistorySize = 512

// history keeps the last sent packets so a nack can be answered.
type history struct {
	m    sync.RWMutex
	buf  map[uint16][]byte
	ring []int32
	pos  int
}

func newHistory(size int) *history {
	ring := make([]int32, size)
	for i := range ring {
		ring[i] = -1
	}
	return &history{
		ring: ring,
		buf:  map[uint16][]byte{},
	}
}

// put stores the plain packet, seq is its sequence number.
func (h *history) put(seq uint16, packet []byte) {
	h.m.Lock()
	defer h.m.Unlock()
	if old := h.ring[h.pos]; old >= 0 {
		delete(h.buf, uint16(old))
	}
	h.buf[seq] = packet
	h.ring[h.pos] = int32(seq)
	h.pos++
	if h.pos == len(h.ring) {
		h.pos = 0
	}
}

func (h *history) get(seq uint16) []byte {
	h.m.RLock()
	defer h.m.RUnlock()
	return h.buf[seq]
}

// lost returns the stored packets a nack asks for, in request order.
func (h *history) lost(report *rtcp.TransportLayerNack) [][]byte {
	var res [][]byte
	for _, item := range report.Nacks {
		item.Range(func(seq uint16) bool {
			if packet := h.get(seq); packet != nil {
				res = append(res, packet)
			}
			return true
		})
	}
	return res
}
