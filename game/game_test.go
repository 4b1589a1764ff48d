package game

import (
	"bytes"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pthm-cable/efield/components"
	"github.com/pthm-cable/efield/config"
	"github.com/pthm-cable/efield/systems"
	"github.com/pthm-cable/efield/telemetry"
)

func newTestGame(t *testing.T, opts Options) *Game {
	t.Helper()
	opts.Headless = true
	g, err := NewGameWithOptions(config.Defaults(), opts)
	require.NoError(t, err)
	t.Cleanup(g.Unload)
	return g
}

func TestNewGameFromDefaults(t *testing.T) {
	g := newTestGame(t, Options{})

	assert.Equal(t, 1000, g.Grid().Len())
	assert.Equal(t, 1, g.Charges().Len())
	assert.Equal(t, int32(0), g.Tick())

	c, err := g.Charges().Get(0)
	require.NoError(t, err)
	assert.Equal(t, float32(1), c.Magnitude)

	_, ok := g.Selected()
	assert.False(t, ok, "nothing is selected at startup")
}

func TestNewGameRejectsBadConfig(t *testing.T) {
	cfg := config.Defaults()
	cfg.Field.Subdivisions = 0
	_, err := NewGameWithOptions(cfg, Options{Headless: true})
	assert.ErrorIs(t, err, systems.ErrInvalidGrid)
}

func TestUpdateHeadlessRunsPass(t *testing.T) {
	g := newTestGame(t, Options{})
	g.UpdateHeadless()

	assert.Equal(t, int32(1), g.Tick())
	assert.Equal(t, 1000, g.LastPass().Samples)
	assert.Equal(t, 1, g.LastPass().Charges)

	// Closest samples to the +1 charge at the origin saturate
	near := g.Grid().Nearest(components.Vec3{})
	assert.Equal(t, float32(1), g.Buffers().Alpha(near))

	corner := g.Grid().Index(9, 9, 9)
	assert.InDelta(t, 0.1, g.Buffers().Alpha(corner), 1e-6)
}

func TestAddChargeIsSeenByNextPass(t *testing.T) {
	g := newTestGame(t, Options{})
	g.Update(Input{AddCharge: true})

	assert.Equal(t, 2, g.Charges().Len())
	assert.Equal(t, 2, g.LastPass().Charges)

	c, err := g.Charges().Get(1)
	require.NoError(t, err)
	assert.Equal(t, float32(-1), c.Magnitude)
	assert.Equal(t, components.Vec3{}, c.Pos)

	_, ok := g.Selected()
	assert.False(t, ok, "adding does not select")
}

func TestSelectUnknown(t *testing.T) {
	g := newTestGame(t, Options{})
	err := g.Select(42)
	assert.True(t, errors.Is(err, systems.ErrUnknownCharge))
}

func TestSetSelectedMagnitude(t *testing.T) {
	g := newTestGame(t, Options{})

	_, err := g.SetSelectedMagnitude(1)
	assert.ErrorIs(t, err, ErrNoSelection)

	require.NoError(t, g.Select(0))

	tests := []struct {
		in, want float32
	}{
		{0.34, 0.3},
		{-1.26, -1.3},
		{5, 2},
		{-7, -2},
		{0, 0},
	}
	for _, tc := range tests {
		got, err := g.SetSelectedMagnitude(tc.in)
		require.NoError(t, err)
		assert.InDelta(t, tc.want, got, 1e-6, "input %v", tc.in)

		c, _ := g.Selected()
		assert.Equal(t, got, c.Magnitude)
	}
}

func TestMoveSelectedClampsToDomain(t *testing.T) {
	g := newTestGame(t, Options{})

	assert.ErrorIs(t, g.MoveSelected(components.Vec3{X: 1}), ErrNoSelection)

	require.NoError(t, g.Select(0))
	require.NoError(t, g.MoveSelected(components.Vec3{X: 10, Y: -3}))
	c, _ := g.Selected()
	assert.Equal(t, components.Vec3{X: 10, Y: -3}, c.Pos)

	require.NoError(t, g.MoveSelected(components.Vec3{X: 500, Z: -500}))
	c, _ = g.Selected()
	assert.Equal(t, components.Vec3{X: 50, Y: -3, Z: -50}, c.Pos)
}

func TestCycleSelectionWraps(t *testing.T) {
	g := newTestGame(t, Options{})
	g.AddCharge()
	g.AddCharge()

	var seen []components.ChargeID
	for i := 0; i < 4; i++ {
		g.CycleSelection()
		c, ok := g.Selected()
		require.True(t, ok)
		seen = append(seen, c.ID)
	}
	assert.Equal(t, []components.ChargeID{0, 1, 2, 0}, seen)
}

func TestPickCharge(t *testing.T) {
	g := newTestGame(t, Options{})
	id := g.AddCharge()
	require.NoError(t, g.Charges().SetPosition(id, components.Vec3{X: 20}))

	ray := Ray{Origin: components.Vec3{X: 20, Z: -100}, Dir: components.Vec3{Z: 1}}
	g.Update(Input{Pick: &ray})

	c, ok := g.Selected()
	require.True(t, ok)
	assert.Equal(t, id, c.ID)

	// A miss keeps the selection
	miss := Ray{Origin: components.Vec3{X: -40, Z: -100}, Dir: components.Vec3{Z: 1}}
	assert.False(t, g.PickCharge(miss))
	c, _ = g.Selected()
	assert.Equal(t, id, c.ID)
}

func TestMoveInputIsCameraRelative(t *testing.T) {
	g := newTestGame(t, Options{})
	require.NoError(t, g.Select(0))

	_, right, _ := g.Camera().Basis()
	g.Update(Input{DT: 0.5, Move: components.Vec3{X: 1}})

	// move_speed 20 for half a second
	c, _ := g.Selected()
	want := right.Scale(10)
	assert.InDelta(t, want.X, c.Pos.X, 1e-4)
	assert.InDelta(t, want.Y, c.Pos.Y, 1e-4)
	assert.InDelta(t, want.Z, c.Pos.Z, 1e-4)
}

func TestCameraInput(t *testing.T) {
	g := newTestGame(t, Options{})
	cam := g.Camera()
	startDist := cam.Distance

	g.Update(Input{Zoom: 0.5, OrbitYaw: 0.2})
	assert.InDelta(t, startDist*0.5, cam.Distance, 1e-4)

	g.Update(Input{ResetCamera: true})
	assert.Equal(t, startDist, cam.Distance)
}

func TestTelemetryOutput(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "run")
	g, err := NewGameWithOptions(config.Defaults(), Options{
		Headless:       true,
		OutputDir:      dir,
		StatsWindowSec: 1e-9,
	})
	require.NoError(t, err)

	var flushed []telemetry.WindowStats
	g.SetStatsCallback(func(s telemetry.WindowStats) { flushed = append(flushed, s) })

	for i := 0; i < 3; i++ {
		g.UpdateHeadless()
	}
	g.Unload()

	require.NotEmpty(t, flushed)
	assert.Equal(t, 1, flushed[0].Charges)
	assert.Equal(t, flushed[len(flushed)-1], g.LastStats())

	data, err := os.ReadFile(filepath.Join(dir, "field.csv"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	assert.Equal(t, len(flushed)+1, len(lines))

	_, err = os.Stat(filepath.Join(dir, "perf.csv"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "config.yaml"))
	assert.NoError(t, err)
}

func captureDebugLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	t.Cleanup(func() { slog.SetDefault(prev) })
	return &buf
}

func TestFailedEditIsLogged(t *testing.T) {
	g := newTestGame(t, Options{})
	buf := captureDebugLog(t)

	// Nothing selected: routine, stays quiet
	v := float32(1.5)
	g.Update(Input{SetMagnitude: &v, DT: 0.1, Move: components.Vec3{X: 1}})
	assert.NotContains(t, buf.String(), "charge edit failed")

	// Selection pointing at a charge the set does not hold
	g.selected = 99
	g.hasSelected = true
	g.Update(Input{SetMagnitude: &v})

	out := buf.String()
	assert.Contains(t, out, "charge edit failed")
	assert.Contains(t, out, `"op":"set magnitude"`)
	assert.Contains(t, out, systems.ErrUnknownCharge.Error())
}

func TestPickReusesBuffers(t *testing.T) {
	g := newTestGame(t, Options{})
	g.AddCharge()
	g.UpdateHeadless()

	ray := Ray{Origin: components.Vec3{Z: -100}, Dir: components.Vec3{Z: 1}}
	require.True(t, g.PickCharge(ray))

	snap := &g.snapshot[0]
	centers := &g.pickCenters[0]
	require.True(t, g.PickCharge(ray))
	assert.Same(t, snap, &g.snapshot[0])
	assert.Same(t, centers, &g.pickCenters[0])
	assert.Len(t, g.pickCenters, 2)

	// Picking sees a move made since the last pass
	require.NoError(t, g.Charges().SetPosition(0, components.Vec3{X: 30}))
	require.True(t, g.PickCharge(Ray{Origin: components.Vec3{X: 30, Z: -100}, Dir: components.Vec3{Z: 1}}))
	c, _ := g.Selected()
	assert.Equal(t, components.ChargeID(0), c.ID)
}
