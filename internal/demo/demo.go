// Package demo is the external driver/activator SPEC_FULL.md assigns to
// cmd/spacesim: it owns the window and GL context, activates one seeded
// planet, and drives the tag scheduler's per-frame
// enqueue → list_available → start → finish loop over a small fixed
// task graph (mesh-fill, neighbor-stitch, GPU-upload). Grounded in
// internal/game/game.go's New/Run/Close shape and in
// SysPlanetA.cpp's activate()/shared_update()/chunk_calc_vrtx_fill()
// usage of the chunked mesh.
package demo

import (
	"fmt"
	"time"

	"github.com/go-gl/gl/v4.1-core/gl"
	"go.uber.org/zap"

	"github.com/stellarforge/spacesim/internal/config"
	"github.com/stellarforge/spacesim/internal/engine/input"
	"github.com/stellarforge/spacesim/internal/engine/window"
	"github.com/stellarforge/spacesim/internal/planet"
	"github.com/stellarforge/spacesim/internal/planet/mesh"
	"github.com/stellarforge/spacesim/internal/planet/skeleton"
	"github.com/stellarforge/spacesim/internal/tasks"
)

// Demo is the running instance: one activated planet driven by one
// scheduler frame loop.
type Demo struct {
	cfg     config.Config
	log     *zap.Logger
	running bool

	window *window.Window
	input  *input.Input

	planet *planet.Activation

	tagNames []string
	tagFill  tasks.TagId
	tagStitch tasks.TagId
	tagUpload tasks.TagId
	chunkTask map[mesh.ChunkId]tasks.TaskId
	stitchTask tasks.TaskId
	uploadTask tasks.TaskId
	tt      *tasks.TaskTags
	exec    *tasks.ExecutionContext

	vbo uint32
}

// New builds the window, activates the planet, and assembles the task
// graph, in that dependency order (the task graph references chunk ids
// the activation produced).
func New(cfg config.Config, log *zap.Logger) (*Demo, error) {
	if log == nil {
		log = zap.NewNop()
	}

	d := &Demo{cfg: cfg, log: log, chunkTask: make(map[mesh.ChunkId]tasks.TaskId)}

	var err error
	d.window, err = window.New(window.Config{
		Title:      window.DefaultTitle,
		Width:      cfg.Display.Width,
		Height:     cfg.Display.Height,
		Fullscreen: cfg.Display.Fullscreen,
		VSync:      cfg.Display.VSync,
	}, log.Named("window"))
	if err != nil {
		return nil, fmt.Errorf("failed to create window: %w", err)
	}

	if err := gl.Init(); err != nil {
		d.window.Close()
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", err)
	}

	d.planet, err = planet.Activate(cfg.Planet, log.Named("planet"))
	if err != nil {
		d.window.Close()
		return nil, fmt.Errorf("failed to activate planet: %w", err)
	}

	d.seedSharedPositions()

	if err := d.buildTaskGraph(); err != nil {
		d.window.Close()
		return nil, fmt.Errorf("failed to build task graph: %w", err)
	}

	gl.GenBuffers(1, &d.vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, d.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(d.planet.Mesh.Buffer()), gl.Ptr(d.planet.Mesh.Buffer()), gl.DYNAMIC_DRAW)
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)

	d.input = input.New()

	log.Info("demo initialized",
		zap.Int("chunks", len(d.planet.Chunks)),
		zap.Int("tasks", d.tt.TaskCount()),
	)
	return d, nil
}

// buildTaskGraph declares one mesh-fill task per resident chunk, one
// shared neighbor-stitch task depending on every fill completing, and
// one GPU-upload task depending on the stitch: the tag scheduler's
// dependency gate is exactly what sequences the three stages without
// the driver hand-ordering them.
func (d *Demo) buildTaskGraph() error {
	b := tasks.NewBuilder()
	d.tagFill = b.Tag("mesh_fill")
	d.tagStitch = b.Tag("neighbor_stitch")
	d.tagUpload = b.Tag("gpu_upload")

	b.DependsOn(d.tagStitch, d.tagFill)
	b.DependsOn(d.tagUpload, d.tagStitch)

	for _, chunkID := range d.planet.Chunks {
		d.chunkTask[chunkID] = b.Task(d.tagFill)
	}
	d.stitchTask = b.Task(d.tagStitch)
	d.uploadTask = b.Task(d.tagUpload)

	d.tagNames = b.TagNames()

	tt, err := b.Build()
	if err != nil {
		return err
	}
	d.tt = tt
	d.exec = tasks.NewExecutionContext(tt)
	return nil
}

// seedSharedPositions writes every skeleton vertex's fixed-point
// position into its shared-vertex buffer slot, converted to float
// meters and with the outward sphere direction as the normal: the
// planet/demo equivalent of SysPlanetA.cpp's shared_update lambda.
func (d *Demo) seedSharedPositions() {
	scaleExp := d.planet.ScaleExp
	d.planet.Mesh.SharedUpdate(func(newlyAdded []mesh.SharedVertexId, sharedToSkel []skeleton.VertexId, sharedOffset int, buffer []byte) {
		for _, id := range newlyAdded {
			skel := sharedToSkel[id]
			pos := d.planet.Positions[skel].ToFloat32(scaleExp)
			normal := unitDirection(pos)
			off := sharedOffset + int(id)*vertexSize
			putVertex(buffer[off:off+vertexSize], pos, normal)
		}
	})
}

// Run drives the frame loop: poll input, enqueue all three stages,
// advance whatever the scheduler now reports as available, swap
// buffers, repeat until quit.
func (d *Demo) Run() error {
	d.running = true
	lastReport := time.Now()
	frames := 0

	d.log.Info("starting frame loop")

	for d.running {
		if d.input.Update() {
			break
		}
		if d.input.QuitRequested() {
			d.running = false
			break
		}
		if w, h, ok := d.input.Resized(); ok {
			gl.Viewport(0, 0, int32(w), int32(h))
		}

		if err := d.frame(); err != nil {
			return err
		}

		d.window.SwapBuffers()

		frames++
		if time.Since(lastReport) >= time.Second {
			d.log.Debug("fps", zap.Int("frames", frames))
			frames = 0
			lastReport = time.Now()
		}
	}
	return nil
}

// frame enqueues every stage's tags and drains whatever is immediately
// available, which on a freshly activated planet runs fill for every
// chunk, then stitch, then upload, all within the same frame since
// nothing here actually blocks.
func (d *Demo) frame() error {
	query := tasks.QueryFor(d.tt, d.tagFill, d.tagStitch, d.tagUpload)
	if err := tasks.Enqueue(d.tt, d.exec, query); err != nil {
		return err
	}

	for {
		avail, err := tasks.ListAvailable(d.tt, d.exec)
		if err != nil {
			return err
		}
		if len(avail) == 0 {
			break
		}
		for _, task := range avail {
			if err := tasks.TaskStart(d.tt, d.exec, task); err != nil {
				return err
			}
			d.runTask(task)
			if err := tasks.TaskFinish(d.tt, d.exec, task); err != nil {
				return err
			}
		}
	}
	return nil
}

func (d *Demo) runTask(task tasks.TaskId) {
	switch {
	case task == d.stitchTask:
		// Neighbor stitching reconciles chunk-boundary normals across
		// resident chunks; this demo has no LOD transitions yet, so there
		// is nothing to reconcile.
	case task == d.uploadTask:
		gl.BindBuffer(gl.ARRAY_BUFFER, d.vbo)
		gl.BufferSubData(gl.ARRAY_BUFFER, 0, len(d.planet.Mesh.Buffer()), gl.Ptr(d.planet.Mesh.Buffer()))
		gl.BindBuffer(gl.ARRAY_BUFFER, 0)
	default:
		for chunkID, t := range d.chunkTask {
			if t == task {
				d.fillChunk(chunkID)
				return
			}
		}
	}
}

// fillChunk computes chunkID's interior vertices from the LUT's
// production-ordered records, each the midpoint of two ancestors
// already resolved (shared corners/edges, or an earlier fill record in
// the same chunk) — mirroring SysPlanetA.cpp's chunk_calc_vrtx_fill
// lambda, which walks the same LUT to fill PlanetVertex.m_position.
func (d *Demo) fillChunk(chunkID mesh.ChunkId) {
	d.planet.Mesh.ChunkCalcVrtxFill(chunkID, func(chunkID mesh.ChunkId, chunkShared []mesh.SharedVertexId, fillCount int, sharedOffset int, buffer []byte) {
		lut := d.planet.Mesh.LUT()
		fillBuf := d.planet.Mesh.ChunkFillSlice(chunkID)
		sharedBuf := buffer[sharedOffset:]

		for _, rec := range lut.Data() {
			a := lut.Get(rec.AncestorA, chunkShared, fillBuf, sharedBuf, vertexSize)
			b := lut.Get(rec.AncestorB, chunkShared, fillBuf, sharedBuf, vertexSize)
			mid, normal := midpointNormalized(getVertexPos(a), getVertexPos(b))

			off := int(rec.FillOut) * vertexSize
			putVertex(fillBuf[off:off+vertexSize], mid, normal)
		}
	})
}

func unitDirection(p [3]float32) [3]float32 {
	l := float32(sqrt32(p[0]*p[0] + p[1]*p[1] + p[2]*p[2]))
	if l == 0 {
		return [3]float32{0, 0, 1}
	}
	return [3]float32{p[0] / l, p[1] / l, p[2] / l}
}

// Close releases GL and window resources.
func (d *Demo) Close() {
	d.log.Info("closing demo")
	if d.vbo != 0 {
		gl.DeleteBuffers(1, &d.vbo)
	}
	if d.window != nil {
		d.window.Close()
	}
}
