package fallible

import (
	"errors"
	"testing"

	"github.com/funvibe/fallible/pkg/app"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReports_NilWithoutPlugin(t *testing.T) {
	assert.Nil(t, Reports(app.New()))
}

func TestPlugin_RegistersQueue(t *testing.T) {
	a := app.New().AddPlugin(Plugin{})
	q := Reports(a)
	require.NotNil(t, q)

	// a second registration must not replace the queue
	a.AddPlugin(Plugin{})
	app.AddEvent[ErrorReport](a)
	assert.Same(t, q, Reports(a))
}

func TestErrorReport_WrapsError(t *testing.T) {
	cause := errors.New("texture missing")
	r := ErrorReport{SystemName: "load", Err: cause}

	assert.Equal(t, "load: texture missing", r.Error())
	assert.ErrorIs(t, r, cause)
	assert.Equal(t, "load: <nil>", ErrorReport{SystemName: "load"}.Error())
}

func TestEvents_InjectedIntoSystems(t *testing.T) {
	a := app.New().AddPlugin(Plugin{})
	require.NoError(t, a.AddSystem(func(q *Events) {
		q.Send(ErrorReport{SystemName: "manual", Err: errors.New("x")})
	}))
	require.NoError(t, a.Update())

	reports := Reports(a).DrainPayloads()
	require.Len(t, reports, 1)
	assert.Equal(t, "manual", reports[0].SystemName)
}
