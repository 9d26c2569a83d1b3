package server

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/liondadev/sprite-toolkit/sheet"
	"github.com/stretchr/testify/require"
)

func TestSessionLoadDoesNotBlockOtherSheets(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	var loads atomic.Int32

	ss := newSessions(func(id string) (*sheet.Editor, error) {
		loads.Add(1)
		if id == "slow" {
			close(started)
			<-release
		}
		return sheet.NewEditor(sheet.NewBuffer(2, 2), sheet.Background{}), nil
	})

	var wg sync.WaitGroup
	slowErrs := make(chan error, 3)
	for range 3 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := ss.get("slow")
			slowErrs <- err
		}()
	}
	<-started

	done := make(chan error, 1)
	go func() {
		_, err := ss.get("fast")
		done <- err
	}()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("loading one sheet blocked another")
	}

	close(release)
	wg.Wait()
	close(slowErrs)
	for err := range slowErrs {
		require.NoError(t, err)
	}

	// three callers of "slow" shared one load
	require.EqualValues(t, 2, loads.Load())
}

func TestSessionLoadFailureIsRetried(t *testing.T) {
	var calls int
	ss := newSessions(func(id string) (*sheet.Editor, error) {
		calls++
		if calls == 1 {
			return nil, errors.New("disk on fire")
		}
		return sheet.NewEditor(sheet.NewBuffer(2, 2), sheet.Background{}), nil
	})

	_, err := ss.get("a")
	require.EqualError(t, err, "disk on fire")

	sess, err := ss.get("a")
	require.NoError(t, err)
	require.NotNil(t, sess.editor)
	require.Equal(t, 2, calls)
}

func TestSessionPutSkipsLoader(t *testing.T) {
	ss := newSessions(func(id string) (*sheet.Editor, error) {
		return nil, errors.New("should not load")
	})

	e := sheet.NewEditor(sheet.NewBuffer(2, 2), sheet.Background{})
	ss.put("a", e)

	sess, err := ss.get("a")
	require.NoError(t, err)
	require.Same(t, e, sess.editor)
}
