package ice

import (
	"encoding/binary"
	"reflect"
	"testing"

	"github.com/pion/stun"
)

func assert(t *testing.T, actual, expected any) {
	if !reflect.DeepEqual(actual, expected) {
		t.Logf("%v expected: %v, but got: %v", t.Name(), expected, actual)
		t.FailNow()
	}
}

type testHelper struct {
	name        string
	description string
	method      func(t *testing.T)
}

type rawAttr struct {
	t stun.AttrType
	v []byte
}

func (a rawAttr) AddTo(m *stun.Message) error {
	m.Add(a.t, a.v)
	return nil
}

func priorityAttr(p uint32) rawAttr {
	v := make([]byte, attrPrioritySize)
	binary.BigEndian.PutUint32(v, p)
	return rawAttr{t: stun.AttrPriority, v: v}
}

var (
	useCandidateAttr = rawAttr{t: stun.AttrUseCandidate}
	controlledAttr   = rawAttr{t: stun.AttrICEControlled, v: make([]byte, 8)}
	controllingAttr  = rawAttr{t: stun.AttrICEControlling, v: make([]byte, 8)}
)

// bindingRequest builds what a controlling peer sends, username is "local:remote" from our side.
func bindingRequest(t *testing.T, username, pwd string, extra ...stun.Setter) *stun.Message {
	setters := []stun.Setter{
		stun.TransactionID,
		stun.BindingRequest,
		stun.NewUsername(username),
		priorityAttr(1853824767),
	}
	setters = append(setters, extra...)
	setters = append(setters, stun.NewShortTermIntegrity(pwd), stun.Fingerprint)
	m, err := stun.Build(setters...)
	if err != nil {
		t.Fatal(err)
	}
	return m
}
