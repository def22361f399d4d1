package entity

import (
	"context"
	"reflect"
	"testing"
	"time"

	"github.com/specialistvlad/osgraph/internal/memstore"
	"github.com/specialistvlad/osgraph/internal/store"
	"github.com/specialistvlad/osgraph/internal/testutil"
	"github.com/stretchr/testify/require"
)

type Address struct {
	Street string `json:"street"`
	Zip    int    `json:"zip"`
}

type City struct {
	Node
	Name       string    `json:"name"`
	Population int       `json:"population"`
	Tags       []string  `json:"tags"`
	Address    Address   `json:"address"`
	Founded    time.Time `json:"founded"`
	Scratch    string    `json:"-"`
}

type Town struct {
	Node
	Name string `json:"name"`
}

type Highway struct {
	Edge
	Lanes int    `json:"lanes"`
	Toll  bool   `json:"toll"`
	Code  string `json:"code"`
}

type Rail struct {
	Edge
	Operator string         `json:"operator"`
	Meta     map[string]any `json:"meta"`
}

type Note struct {
	Object
	Text string
}

type AuditEntry struct {
	Object
	Action string `json:"action"`
}

func (*AuditEntry) Collection() string { return "audit" }

// typeTable is a minimal Factory for tests in this package.
type typeTable map[string]reflect.Type

func newTypeTable(protos ...any) typeTable {
	tt := typeTable{}
	for _, p := range protos {
		t := reflect.TypeOf(p).Elem()
		tt[t.Name()] = t
	}
	return tt
}

func (tt typeTable) New(class string) (any, bool) {
	t, ok := tt[class]
	if !ok {
		return nil, false
	}
	return reflect.New(t).Interface(), true
}

type fixture struct {
	ctx   context.Context
	sess  *Session
	store *testutil.RecordingStore
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureWithStore(t, memstore.New())
}

func newFixtureWithStore(t *testing.T, inner store.Store) *fixture {
	t.Helper()
	ctx, _ := testutil.Context(t)
	logger, _ := testutil.NewLogger(t)
	st := testutil.NewRecordingStore(inner)
	sess := NewSession(st, newTypeTable(&City{}, &Town{}, &Highway{}, &Rail{}, &Note{}, &AuditEntry{}), WithLogger(logger))
	t.Cleanup(func() { _ = sess.Close(context.Background()) })
	return &fixture{ctx: ctx, sess: sess, store: st}
}

func (f *fixture) city(t *testing.T, name string) *City {
	t.Helper()
	c, err := Create(f.ctx, f.sess, &City{Name: name})
	require.NoError(t, err)
	return c
}
