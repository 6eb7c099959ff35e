package ice

import (
	"encoding/binary"
	"net"
	"strings"

	"github.com/pion/stun"
)

const attrPrioritySize = 4

// binding is a parsed binding request. A lite agent only answers them, it never sends one.
type binding struct {
	msg *stun.Message
	// username is "local:remote" from the sender's view, so local is our ufrag
	localUfrag   string
	remoteUfrag  string
	priority     uint32
	useCandidate bool
}

// parseBinding checks the shape of m, credentials are checked by authenticate.
func parseBinding(m *stun.Message) (*binding, stun.ErrorCode) {
	if m.Type != stun.BindingRequest {
		return nil, stun.CodeBadRequest
	}
	if !m.Contains(stun.AttrFingerprint) || !m.Contains(stun.AttrMessageIntegrity) {
		return nil, stun.CodeBadRequest
	}

	b := &binding{msg: m, useCandidate: m.Contains(stun.AttrUseCandidate)}
	if raw, err := m.Get(stun.AttrPriority); err == nil && len(raw) == attrPrioritySize {
		b.priority = binary.BigEndian.Uint32(raw)
	}
	if b.priority == 0 {
		return nil, stun.CodeBadRequest
	}

	username, err := m.Get(stun.AttrUsername)
	if err != nil || len(username) == 0 {
		return nil, stun.CodeBadRequest
	}
	if parts := strings.Split(string(username), ":"); len(parts) == 2 {
		b.localUfrag, b.remoteUfrag = parts[0], parts[1]
	}

	// we are always controlled
	if m.Contains(stun.AttrICEControlled) {
		return nil, stun.CodeRoleConflict
	}
	return b, 0
}

func (b *binding) authenticate(ufrag, password string) stun.ErrorCode {
	if b.localUfrag != ufrag || b.remoteUfrag == "" {
		return stun.CodeUnauthorized
	}
	if err := stun.NewShortTermIntegrity(password).Check(b.msg); err != nil {
		return stun.CodeUnauthorized
	}
	return 0
}

// success answers with the address the request came from.
func (b *binding) success(from net.Addr, password string) (*stun.Message, error) {
	addr, ok := from.(*net.UDPAddr)
	if !ok {
		return nil, ErrNoUDPAddr
	}
	return stun.Build(b.msg, stun.BindingSuccess,
		&stun.XORMappedAddress{IP: addr.IP, Port: addr.Port},
		stun.NewShortTermIntegrity(password),
		stun.Fingerprint,
	)
}

func errorResponse(m *stun.Message, code stun.ErrorCode) (*stun.Message, error) {
	res := stun.New()
	res.SetType(stun.MessageType{Method: m.Type.Method, Class: stun.ClassErrorResponse})
	res.TransactionID = m.TransactionID
	if err := code.AddTo(res); err != nil {
		return nil, err
	}
	res.Encode()
	return res, nil
}
