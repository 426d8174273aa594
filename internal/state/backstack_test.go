package state

import (
	"context"
	"fmt"
	"math/rand"
	"testing"

	"github.com/openq1/q1display/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubPage struct {
	name   string
	closed bool
}

func (p *stubPage) Name() string { return p.name }
func (p *stubPage) OnDisplayEvent(context.Context, types.DisplayEvent) error {
	return nil
}
func (p *stubPage) OnPrinterStatusUpdate(context.Context, types.Snapshot) error { return nil }
func (p *stubPage) OnFileListUpdate(context.Context, types.Snapshot) error      { return nil }
func (p *stubPage) Close() error {
	p.closed = true
	return nil
}

func stubConstruct(name string) func() (types.Page, error) {
	return func() (types.Page, error) { return &stubPage{name: name}, nil }
}

func TestBackstackNavigate(t *testing.T) {
	t.Parallel()

	b := new(Backstack)
	assert.Nil(t, b.Top())
	b.Push(&stubPage{name: "boot"})

	nav, err := b.Navigate("main", stubConstruct("main"))
	require.NoError(t, err)
	assert.Equal(t, NavPush, nav)
	assert.Equal(t, []string{"boot", "main"}, b.Names())

	nav, err = b.Navigate("files", stubConstruct("files"))
	require.NoError(t, err)
	assert.Equal(t, NavPush, nav)
	top := b.Top().(*stubPage)

	nav, err = b.Navigate("main", stubConstruct("main"))
	require.NoError(t, err)
	assert.Equal(t, NavBack, nav)
	assert.Equal(t, []string{"boot", "main"}, b.Names())
	assert.True(t, top.closed, "popped page must be closed")

	// page on top is pushed again, only one level back is special
	nav, err = b.Navigate("main", stubConstruct("main"))
	require.NoError(t, err)
	assert.Equal(t, NavPush, nav)
	assert.Equal(t, []string{"boot", "main", "main"}, b.Names())
	nav, err = b.Navigate("main", stubConstruct("main"))
	require.NoError(t, err)
	assert.Equal(t, NavBack, nav)
	assert.Equal(t, []string{"boot", "main"}, b.Names())

	_, err = b.Navigate("files", stubConstruct("files"))
	require.NoError(t, err)
	nav, err = b.Navigate("boot", stubConstruct("boot"))
	require.NoError(t, err)
	assert.Equal(t, NavPush, nav)
	assert.Equal(t, []string{"boot", "main", "files", "boot"}, b.Names())
}

func TestBackstackNavigateToTopOfSingle(t *testing.T) {
	t.Parallel()

	b := new(Backstack)
	b.Push(&stubPage{name: "boot"})
	nav, err := b.Navigate("boot", stubConstruct("boot"))
	require.NoError(t, err)
	assert.Equal(t, NavPush, nav)
	assert.Equal(t, []string{"boot", "boot"}, b.Names())
}

func TestBackstackConstructError(t *testing.T) {
	t.Parallel()

	b := new(Backstack)
	b.Push(&stubPage{name: "boot"})
	_, err := b.Navigate("nope", func() (types.Page, error) { return nil, fmt.Errorf("unknown") })
	require.Error(t, err)
	assert.Equal(t, []string{"boot"}, b.Names())

	_, err = b.Navigate("liar", stubConstruct("other"))
	require.Error(t, err)
	assert.Equal(t, 1, b.Len())
}

func TestBackstackPopKeepsLast(t *testing.T) {
	t.Parallel()

	b := new(Backstack)
	b.Push(&stubPage{name: "boot"})
	b.Push(&stubPage{name: "main"})
	p, err := b.Pop()
	require.NoError(t, err)
	assert.Equal(t, "main", p.Name())
	_, err = b.Pop()
	require.Error(t, err)
	assert.Equal(t, "boot", b.Top().Name())
	assert.Nil(t, b.Second())
}

// Random navigation never empties stack, pops only one level back, otherwise grows by one.
func TestBackstackInvariants(t *testing.T) {
	t.Parallel()

	names := []string{"boot", "main", "files", "settings"}
	rnd := rand.New(rand.NewSource(42))
	b := new(Backstack)
	b.Push(&stubPage{name: "boot"})
	for i := 0; i < 2000; i++ {
		target := names[rnd.Intn(len(names))]
		lenBefore := b.Len()
		var secondName string
		if s := b.Second(); s != nil {
			secondName = s.Name()
		}

		nav, err := b.Navigate(target, stubConstruct(target))
		require.NoError(t, err)
		switch {
		case lenBefore >= 2 && secondName == target:
			assert.Equal(t, NavBack, nav)
			assert.Equal(t, lenBefore-1, b.Len())
		default:
			assert.Equal(t, NavPush, nav)
			assert.Equal(t, lenBefore+1, b.Len())
		}
		require.True(t, b.Len() >= 1)
		assert.Equal(t, target, b.Top().Name())
	}
}
