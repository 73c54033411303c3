// SPDX-FileCopyrightText: 2025 The Corral Authors
// SPDX-License-Identifier: Apache-2.0

package forwarding

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xmidt-org/touchstone"
	"go.uber.org/zap"

	"github.com/corral-io/corral/docstore"
	"github.com/corral-io/corral/docstore/inmem"
	"github.com/corral-io/corral/metric"
	"github.com/corral-io/corral/model"
	"github.com/corral-io/corral/registry"
	"github.com/corral-io/corral/session"
)

type staticLister []registry.Entry

func (l staticLister) ListEntries(ctx context.Context) ([]registry.Entry, error) {
	return l, nil
}

// fakeRemote is one in-memory remote database root.
type fakeRemote struct {
	root     map[string]interface{}
	pushed   []interface{}
	dialErr  error
	blockGet bool
}

type fakeRemoteConn struct {
	remote *fakeRemote
}

func (c *fakeRemoteConn) Get(ctx context.Context, path string, into interface{}) error {
	if c.remote.blockGet {
		<-ctx.Done()
		return ctx.Err()
	}
	*(into.(*map[string]interface{})) = c.remote.root
	return nil
}

func (c *fakeRemoteConn) Set(ctx context.Context, path string, value interface{}) error {
	c.remote.root = value.(map[string]interface{})
	return nil
}

func (c *fakeRemoteConn) Push(ctx context.Context, path string, value interface{}) (string, error) {
	c.remote.pushed = append(c.remote.pushed, value)
	return "-pushkey", nil
}

func (c *fakeRemoteConn) Close() error {
	return nil
}

func testMeasures(t *testing.T) metric.Measures {
	f := touchstone.NewFactory(touchstone.Config{}, zap.NewNop(), prometheus.NewPedanticRegistry())
	m, err := metric.NewMeasures(f)
	require.NoError(t, err)
	return m
}

type fixture struct {
	service *Service
	store   docstore.S
	remotes map[string]*fakeRemote
}

func newFixture(t *testing.T, entries []registry.Entry, remotes map[string]*fakeRemote) *fixture {
	return newFixtureConfig(t, Config{}, entries, remotes)
}

func newFixtureConfig(t *testing.T, config Config, entries []registry.Entry, remotes map[string]*fakeRemote) *fixture {
	dialer := session.DialerFunc(func(ctx context.Context, c model.RemoteConfig) (session.Conn, error) {
		remote, ok := remotes[c.ID]
		if !ok {
			return nil, errors.New("unknown remote")
		}
		if remote.dialErr != nil {
			return nil, remote.dialErr
		}
		return &fakeRemoteConn{remote: remote}, nil
	})

	store := inmem.NewInMem()
	sessions := session.NewManager(dialer, zap.NewNop(), nil)
	service := NewService(config, staticLister(entries), sessions, store, zap.NewNop(), testMeasures(t))
	return &fixture{service: service, store: store, remotes: remotes}
}

func testEntries() []registry.Entry {
	return []registry.Entry{
		{
			Key: "alpha",
			Config: model.RemoteConfig{
				ID:          "alpha",
				ProjectID:   "herd-a",
				DatabaseURL: "https://herd-a.firebaseio.com",
			},
		},
		{
			Key: "beta",
			Config: model.RemoteConfig{
				ID:          "beta",
				ProjectID:   "herd-b",
				DatabaseURL: "https://herd-b.firebaseio.com",
			},
		},
	}
}

func TestBroadcastForward(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	remotes := map[string]*fakeRemote{
		"alpha": {root: map[string]interface{}{"default": "d1", "forward": "old-a", "password": "p1"}},
		"beta":  {root: map[string]interface{}{"forward": "old-b"}},
	}
	f := newFixture(t, testEntries(), remotes)

	results, err := f.service.BroadcastForward(context.Background(), "new-value")
	require.NoError(err)
	require.Len(results, 2)
	for _, result := range results {
		assert.True(result.OK(), "target %s failed: %s", result.Key, result.Err)
	}

	assert.Equal("new-value", remotes["alpha"].root["forward"])
	assert.Equal("new-value", remotes["beta"].root["forward"])
	// sibling fields survive the merge
	assert.Equal("d1", remotes["alpha"].root["default"])
	assert.Equal("p1", remotes["alpha"].root["password"])
}

func TestBroadcastForwardPartialFailure(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	remotes := map[string]*fakeRemote{
		"alpha": {root: map[string]interface{}{"forward": "old-a"}},
		"beta":  {dialErr: errors.New("permission denied")},
	}
	f := newFixture(t, testEntries(), remotes)

	results, err := f.service.BroadcastForward(context.Background(), "new-value")
	require.NoError(err)
	require.Len(results, 2)

	assert.True(results[0].OK())
	assert.False(results[1].OK())
	// the healthy target was still updated
	assert.Equal("new-value", remotes["alpha"].root["forward"])
}

func TestBroadcastForwardUnusableEntry(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	entries := append(testEntries(), registry.Entry{
		Key: "broken",
		Err: registry.ParseError{Reason: "missing databaseURL"},
	})
	remotes := map[string]*fakeRemote{
		"alpha": {root: map[string]interface{}{}},
		"beta":  {root: map[string]interface{}{}},
	}
	f := newFixture(t, entries, remotes)

	results, err := f.service.BroadcastForward(context.Background(), "v")
	require.NoError(err)
	require.Len(results, 3)
	assert.False(results[2].OK())
	assert.Contains(results[2].Err, "missing databaseURL")
}

func TestBroadcastForwardTimeout(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	remotes := map[string]*fakeRemote{
		"alpha": {root: map[string]interface{}{"forward": "old-a"}},
		"beta":  {root: map[string]interface{}{"forward": "old-b"}, blockGet: true},
	}
	f := newFixtureConfig(t, Config{Timeout: 50 * time.Millisecond}, testEntries(), remotes)

	started := time.Now()
	results, err := f.service.BroadcastForward(context.Background(), "new-value")
	require.NoError(err)
	require.Len(results, 2)
	// the stalled target settles at its deadline instead of wedging the run
	assert.Less(time.Since(started), 5*time.Second)

	assert.True(results[0].OK())
	assert.Equal("new-value", remotes["alpha"].root["forward"])

	assert.False(results[1].OK())
	assert.Contains(results[1].Err, context.DeadlineExceeded.Error())
	assert.Equal("old-b", remotes["beta"].root["forward"])
}

func TestUpdateTarget(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	remotes := map[string]*fakeRemote{
		"alpha": {root: map[string]interface{}{"default": "d1", "forward": "f1", "password": "p1", "Cow": "herd"}},
		"beta":  {root: map[string]interface{}{"forward": "f2"}},
	}
	f := newFixture(t, testEntries(), remotes)

	result, err := f.service.UpdateTarget(context.Background(), "alpha", map[string]interface{}{
		"forward":  "f1-edited",
		"password": "p1-edited",
	})
	require.NoError(err)
	assert.True(result.OK())
	assert.Equal("alpha", result.Key)

	assert.Equal("f1-edited", remotes["alpha"].root["forward"])
	assert.Equal("p1-edited", remotes["alpha"].root["password"])
	// untouched fields survive the merge
	assert.Equal("d1", remotes["alpha"].root["default"])
	assert.Equal("herd", remotes["alpha"].root["Cow"])
	// only the named target is written
	assert.Equal("f2", remotes["beta"].root["forward"])
}

func TestUpdateTargetUnknownKey(t *testing.T) {
	assert := assert.New(t)

	remotes := map[string]*fakeRemote{
		"alpha": {root: map[string]interface{}{}},
		"beta":  {root: map[string]interface{}{}},
	}
	f := newFixture(t, testEntries(), remotes)

	_, err := f.service.UpdateTarget(context.Background(), "ghost", map[string]interface{}{"forward": "x"})
	var unknown UnknownTargetError
	assert.ErrorAs(err, &unknown)
	assert.Equal("ghost", unknown.Key)
	assert.Equal(404, unknown.StatusCode())
}

func TestUpdateTargetUnusableEntry(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	entries := append(testEntries(), registry.Entry{
		Key: "broken",
		Err: registry.ParseError{Reason: "missing databaseURL"},
	})
	f := newFixture(t, entries, map[string]*fakeRemote{})

	result, err := f.service.UpdateTarget(context.Background(), "broken", map[string]interface{}{"forward": "x"})
	require.NoError(err)
	assert.False(result.OK())
	assert.Contains(result.Err, "missing databaseURL")
}

func TestBackupRestoreRoundTrip(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	ctx := context.Background()

	remotes := map[string]*fakeRemote{
		"alpha": {root: map[string]interface{}{"forward": "value-a"}},
		"beta":  {root: map[string]interface{}{"forward": "value-b"}},
	}
	f := newFixture(t, testEntries(), remotes)

	snapshot, results, err := f.service.Backup(ctx)
	require.NoError(err)
	require.Len(results, 2)
	assert.Equal(2, snapshot.Count)
	assert.Equal("value-a", snapshot.Entries["alpha"].Forward)
	assert.Equal("value-b", snapshot.Entries["beta"].Forward)

	// the snapshot document is persisted in the hub store
	var stored model.ForwardingSnapshot
	require.NoError(f.store.Read(ctx, docstore.SnapshotPath, &stored))
	assert.Equal(2, stored.Count)

	// clobber both remotes, then restore
	remotes["alpha"].root["forward"] = "clobbered"
	remotes["beta"].root["forward"] = "clobbered"

	restoreResults, err := f.service.Restore(ctx)
	require.NoError(err)
	require.Len(restoreResults, 2)
	assert.Equal("value-a", remotes["alpha"].root["forward"])
	assert.Equal("value-b", remotes["beta"].root["forward"])
}

func TestBackupIsIdempotent(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	ctx := context.Background()

	remotes := map[string]*fakeRemote{
		"alpha": {root: map[string]interface{}{"forward": "value-a"}},
		"beta":  {root: map[string]interface{}{"forward": "value-b"}},
	}
	f := newFixture(t, testEntries(), remotes)

	first, _, err := f.service.Backup(ctx)
	require.NoError(err)
	second, _, err := f.service.Backup(ctx)
	require.NoError(err)

	assert.Equal(first.Entries, second.Entries)
	assert.Equal(first.Count, second.Count)
}

func TestRestoreWithoutSnapshot(t *testing.T) {
	assert := assert.New(t)

	remotes := map[string]*fakeRemote{
		"alpha": {root: map[string]interface{}{"forward": "live"}},
	}
	f := newFixture(t, testEntries()[:1], remotes)

	_, err := f.service.Restore(context.Background())
	assert.ErrorIs(err, ErrNoSnapshot)
	// the guard fires before any remote write
	assert.Equal("live", remotes["alpha"].root["forward"])
}

func TestRestoreSkipsMissingEntries(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	ctx := context.Background()

	remotes := map[string]*fakeRemote{
		"alpha": {root: map[string]interface{}{"forward": "value-a"}},
		"beta":  {root: map[string]interface{}{}},
	}
	f := newFixture(t, testEntries(), remotes)

	// snapshot only covers alpha; beta has no captured value
	require.NoError(f.store.Write(ctx, docstore.SnapshotPath, model.ForwardingSnapshot{
		Entries: map[string]model.SnapshotEntry{
			"alpha": {Forward: "captured-a"},
		},
		Count: 1,
	}))

	results, err := f.service.Restore(ctx)
	require.NoError(err)
	require.Len(results, 2)

	assert.True(results[0].OK())
	assert.Equal("captured-a", remotes["alpha"].root["forward"])

	assert.False(results[1].OK())
	assert.Contains(results[1].Err, "skipped")
	assert.Nil(remotes["beta"].root["forward"])
}

func TestPushAll(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	remotes := map[string]*fakeRemote{
		"alpha": {root: map[string]interface{}{}},
		"beta":  {root: map[string]interface{}{}},
	}
	f := newFixture(t, testEntries(), remotes)

	rule := PushEntry{Default: "d", Forward: "f", Password: "p"}
	results, err := f.service.PushAll(context.Background(), rule)
	require.NoError(err)
	require.Len(results, 2)

	for _, remote := range remotes {
		require.Len(remote.pushed, 1)
		assert.Equal(rule, remote.pushed[0])
	}
}

func TestSanitizeKey(t *testing.T) {
	testCases := []struct {
		In       string
		Expected string
	}{
		{"plain", "plain"},
		{"a.b#c$d[e]f/g", "a_b_c_d_e_f_g"},
		{"https://x.firebaseio.com", "https:__x_firebaseio_com"},
		{"", ""},
	}

	for _, testCase := range testCases {
		assert.Equal(t, testCase.Expected, SanitizeKey(testCase.In))
	}
}
