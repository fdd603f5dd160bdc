package tilecl

import (
	"fmt"

	"github.com/tilegpu/tilecl/cl"
	"github.com/tilegpu/tilecl/hw"
	"github.com/tilegpu/tilecl/mem"
	"github.com/tilegpu/tilecl/tiling"
)

// Limits of a single render job. Operations larger than this are split into
// multiple jobs by the orchestrators.
const (
	MaxFrameDim   = tiling.MaxDimPixels
	maxSupertiles = 256

	tileStateBytesPerTile = 128
	tileAllocInitialChunk = 8192
)

// FrameTiling is the tile and supertile geometry of one frame.
type FrameTiling struct {
	Width  uint32
	Height uint32
	Layers uint32

	RenderTargets uint32
	MSAA          bool
	InternalBPP   hw.InternalBPP

	TileWidth  uint32
	TileHeight uint32

	DrawTilesX uint32
	DrawTilesY uint32

	// Supertile size in tiles and frame size in supertiles.
	SupertileWidth          uint32
	SupertileHeight         uint32
	FrameWidthInSupertiles  uint32
	FrameHeightInSupertiles uint32
}

func computeFrameTiling(width, height, layers, renderTargets uint32, bpp hw.InternalBPP, msaa bool) FrameTiling {
	if width == 0 || height == 0 || layers == 0 {
		panic("tilecl: empty frame")
	}
	if width > MaxFrameDim || height > MaxFrameDim {
		panic("tilecl: frame exceeds hardware maximum")
	}

	ft := FrameTiling{
		Width:         width,
		Height:        height,
		Layers:        layers,
		RenderTargets: renderTargets,
		MSAA:          msaa,
		InternalBPP:   bpp,
	}

	// Tile size shrinks as the per-pixel tile buffer footprint grows.
	switch bpp {
	case hw.InternalBPP32:
		ft.TileWidth, ft.TileHeight = 64, 64
	case hw.InternalBPP64:
		ft.TileWidth, ft.TileHeight = 64, 32
	case hw.InternalBPP128:
		ft.TileWidth, ft.TileHeight = 32, 32
	default:
		panic("tilecl: invalid internal bpp")
	}
	if msaa {
		ft.TileWidth /= 2
		ft.TileHeight /= 2
	}

	ft.DrawTilesX = tiling.DivRoundUp(width, ft.TileWidth)
	ft.DrawTilesY = tiling.DivRoundUp(height, ft.TileHeight)

	// Grow supertiles until the frame fits the hardware's supertile budget.
	ft.SupertileWidth, ft.SupertileHeight = 1, 1
	for {
		ft.FrameWidthInSupertiles = tiling.DivRoundUp(ft.DrawTilesX, ft.SupertileWidth)
		ft.FrameHeightInSupertiles = tiling.DivRoundUp(ft.DrawTilesY, ft.SupertileHeight)
		if ft.FrameWidthInSupertiles*ft.FrameHeightInSupertiles <= maxSupertiles {
			break
		}
		if ft.SupertileWidth < ft.SupertileHeight {
			ft.SupertileWidth++
		} else {
			ft.SupertileHeight++
		}
	}

	return ft
}

// Job is one recorded render job: a binning stream, a render control stream
// and an indirect stream holding per-tile sublists, plus the buffer objects
// the streams reference.
type Job struct {
	BCL      *cl.CL
	RCL      *cl.CL
	Indirect *cl.CL

	Tiling      FrameTiling
	TileAllocBO *BO
	TileStateBO *BO

	// ExtraBOs holds transient allocations (e.g. staging buffers) that
	// belong to this job and are released exactly once with it.
	ExtraBOs []*BO

	// Stream BOs, set when the job is finished.
	BCLBO      *BO
	RCLBO      *BO
	IndirectBO *BO

	dev          *Device
	frameStarted bool
	finished     bool
}

func newJob(dev *Device, arena *mem.Arena) *Job {
	job := &Job{dev: dev}
	job.BCL = cl.New(arena, nil)
	job.BCL.Buf = job.BCL
	job.RCL = cl.New(arena, nil)
	job.RCL.Buf = job.RCL
	job.Indirect = cl.New(arena, nil)
	job.Indirect.Buf = job.Indirect
	return job
}

// StartFrame establishes the frame geometry, allocates the binner's working
// buffers and emits the binning prologue. It must be called exactly once per
// job, before any render control records.
func (job *Job) StartFrame(width, height, layers, renderTargets uint32, bpp hw.InternalBPP, msaa bool) error {
	if job.frameStarted {
		panic("tilecl: StartFrame called twice")
	}
	ft := computeFrameTiling(width, height, layers, renderTargets, bpp, msaa)

	tileStateSize := ft.Layers * ft.DrawTilesX * ft.DrawTilesY * tileStateBytesPerTile
	tileState, err := job.dev.NewBO(tileStateSize, "TSDA")
	if err != nil {
		return err
	}
	// The binner writes 64 bytes per tile per layer up front, then chains
	// further blocks out of the same BO.
	tileAllocSize := 64 * ft.Layers * ft.DrawTilesX * ft.DrawTilesY
	tileAllocSize = tiling.AlignUp(tileAllocSize, uint32(boAlign)) + tileAllocInitialChunk
	tileAlloc, err := job.dev.NewBO(tileAllocSize, "tile alloc")
	if err != nil {
		job.dev.Free(tileState)
		return err
	}

	job.Tiling = ft
	job.TileStateBO = tileState
	job.TileAllocBO = tileAlloc
	job.frameStarted = true

	job.BCL.Emit(&hw.NumberOfLayers{Layers: uint8(ft.Layers)})
	job.BCL.Emit(&hw.TileBinningModeCfg{
		TileAllocationAddress:        cl.Address{Buf: tileAlloc},
		TileStateAddress:             cl.Address{Buf: tileState},
		WidthInTiles:                 uint16(ft.DrawTilesX),
		HeightInTiles:                uint16(ft.DrawTilesY),
		MaximumBPPOfAllRenderTargets: bpp,
		AutoInitializeTileState:      true,
		TileAllocationBlockSize:      hw.TileAllocBlockSize64B,
	})
	job.BCL.Emit(&hw.StartTileBinning{})
	return nil
}

// EmitBinningFlush closes the binning stream. The semaphore increment lets
// the render pass observe binning completion.
func (job *Job) EmitBinningFlush() {
	if !job.frameStarted {
		panic("tilecl: binning flush before StartFrame")
	}
	job.BCL.Emit(&hw.IncrementSemaphore{})
	job.BCL.Emit(&hw.Flush{})
}

// AddExtraBO registers a transient allocation with the job.
func (job *Job) AddExtraBO(bo *BO) {
	job.ExtraBOs = append(job.ExtraBOs, bo)
}

func (job *Job) releaseBOs() {
	for _, bo := range []*BO{job.TileAllocBO, job.TileStateBO, job.BCLBO, job.RCLBO, job.IndirectBO} {
		if bo != nil {
			job.dev.Free(bo)
		}
	}
	for _, bo := range job.ExtraBOs {
		job.dev.Free(bo)
	}
	job.TileAllocBO, job.TileStateBO = nil, nil
	job.BCLBO, job.RCLBO, job.IndirectBO = nil, nil, nil
	job.ExtraBOs = nil
}

// finish uploads the three streams into buffer objects and resolves all
// relocations. After finish the job must not be mutated.
func (job *Job) finish() error {
	if job.finished {
		panic("tilecl: job finished twice")
	}

	streams := []struct {
		cl   *cl.CL
		bo   **BO
		name string
	}{
		{job.BCL, &job.BCLBO, "BCL"},
		{job.RCL, &job.RCLBO, "RCL"},
		{job.Indirect, &job.IndirectBO, "indirect list"},
	}
	base := map[cl.Buffer]uint32{}
	for _, s := range streams {
		if len(s.cl.Data) == 0 {
			continue
		}
		bo, err := job.dev.NewBO(uint32(len(s.cl.Data)), s.name)
		if err != nil {
			return fmt.Errorf("tilecl: uploading %s: %w", s.name, err)
		}
		*s.bo = bo
		base[s.cl] = bo.Addr
	}

	lookup := func(buf cl.Buffer) uint32 {
		switch buf := buf.(type) {
		case *BO:
			return buf.Addr
		case *cl.CL:
			addr, ok := base[buf]
			if !ok {
				panic("tilecl: relocation into empty stream")
			}
			return addr
		default:
			panic(fmt.Sprintf("tilecl: relocation into unknown buffer %T", buf))
		}
	}
	for _, s := range streams {
		s.cl.ResolveRelocs(lookup)
		if *s.bo != nil {
			copy((*s.bo).Map(), s.cl.Data)
			(*s.bo).Unmap()
		}
	}

	job.finished = true
	return nil
}
