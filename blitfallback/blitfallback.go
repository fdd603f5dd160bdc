// Package blitfallback implements the shader-based blit path on top of wgpu,
// for regions the fixed-function transfer unit cannot handle: scaled,
// mirrored or offset blits. Pipelines are cached per destination format.
package blitfallback

import (
	"fmt"
	"sync"

	"honnef.co/go/safeish"
	"honnef.co/go/wgpu"

	tilecl "github.com/tilegpu/tilecl"
	"github.com/tilegpu/tilecl/format"
	"github.com/tilegpu/tilecl/hw"
	"github.com/tilegpu/tilecl/transfer"
)

const blitShaders = `
		@vertex
		fn vs_main(@builtin(vertex_index) ix: u32) -> @builtin(position) vec4<f32> {
			// Generate a full screen quad in normalized device coordinates
			var vertex = vec2(-1.0, 1.0);
			switch ix {
				case 1u: {
					vertex = vec2(-1.0, -1.0);
				}
				case 2u, 4u: {
					vertex = vec2(1.0, -1.0);
				}
				case 5u: {
					vertex = vec2(1.0, 1.0);
				}
				default: {}
			}
			return vec4(vertex, 0.0, 1.0);
		}

		struct Params {
			src_offset: vec2<i32>,
			src_extent: vec2<i32>,
			dst_offset: vec2<i32>,
			dst_extent: vec2<i32>,
			mirror: vec2<u32>,
		}

		@group(0) @binding(0)
		var src_tex: texture_2d<f32>;
		@group(0) @binding(1)
		var<uniform> params: Params;

		@fragment
		fn fs_main(@builtin(position) pos: vec4<f32>) -> @location(0) vec4<f32> {
			var rel = vec2<i32>(pos.xy) - params.dst_offset;
			if params.mirror.x != 0u {
				rel.x = params.dst_extent.x - 1 - rel.x;
			}
			if params.mirror.y != 0u {
				rel.y = params.dst_extent.y - 1 - rel.y;
			}
			let src = params.src_offset + rel * params.src_extent / params.dst_extent;
			return textureLoad(src_tex, src, 0);
		}`

type pipeline struct {
	BindLayout *wgpu.BindGroupLayout
	Pipeline   *wgpu.RenderPipeline
}

// Renderer is a shader-based transfer.BlitRenderer. The pipeline cache is
// shared; lookup-or-create is guarded so that concurrent callers create at
// most one pipeline per format.
type Renderer struct {
	Device *wgpu.Device
	Queue  *wgpu.Queue

	mu        sync.Mutex
	pipelines map[format.Format]*pipeline
	targets   map[*tilecl.Image]*wgpu.TextureView
}

func New(dev *wgpu.Device, queue *wgpu.Queue) *Renderer {
	return &Renderer{
		Device:    dev,
		Queue:     queue,
		pipelines: make(map[format.Format]*pipeline),
		targets:   make(map[*tilecl.Image]*wgpu.TextureView),
	}
}

func textureFormat(f format.Format) (wgpu.TextureFormat, error) {
	switch f {
	case format.RGBA8:
		return wgpu.TextureFormatRGBA8Unorm, nil
	case format.BGRA8:
		return wgpu.TextureFormatBGRA8Unorm, nil
	default:
		return 0, fmt.Errorf("blitfallback: no float-sampled texture format for %s", f)
	}
}

// getOrCreate returns the cached pipeline for a destination format. Pipeline
// compilation can be slow, so it runs outside the lock; a second check under
// the lock keeps a concurrent loser from inserting a duplicate.
func (r *Renderer) getOrCreate(f format.Format, wf wgpu.TextureFormat) *pipeline {
	r.mu.Lock()
	if p, ok := r.pipelines[f]; ok {
		r.mu.Unlock()
		return p
	}
	r.mu.Unlock()

	p := r.newPipeline(wf)

	r.mu.Lock()
	defer r.mu.Unlock()
	if won, ok := r.pipelines[f]; ok {
		p.Pipeline.Release()
		p.BindLayout.Release()
		return won
	}
	r.pipelines[f] = p
	return p
}

func (r *Renderer) newPipeline(target wgpu.TextureFormat) *pipeline {
	dev := r.Device
	shader := dev.CreateShaderModule(wgpu.ShaderModuleDescriptor{
		Label:  "blit shaders",
		Source: wgpu.ShaderSourceWGSL(blitShaders),
	})
	bindLayout := dev.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Entries: []wgpu.BindGroupLayoutEntry{
			{
				Visibility: wgpu.ShaderStageFragment,
				Binding:    0,
				Texture: &wgpu.TextureBindingLayout{
					SampleType:    wgpu.TextureSampleTypeFloat,
					ViewDimension: wgpu.TextureViewDimension2D,
					Multisampled:  false,
				},
			},
			{
				Visibility: wgpu.ShaderStageFragment,
				Binding:    1,
				Buffer: &wgpu.BufferBindingLayout{
					Type:             wgpu.BufferBindingTypeUniform,
					HasDynamicOffset: false,
					MinBindingSize:   0,
				},
			},
		},
	})
	pipelineLayout := dev.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            "blit pipeline layout",
		BindGroupLayouts: []*wgpu.BindGroupLayout{bindLayout},
	})
	pl := dev.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  "blit pipeline",
		Layout: pipelineLayout,
		Vertex: &wgpu.VertexState{
			Module:     shader,
			EntryPoint: "vs_main",
		},
		Fragment: &wgpu.FragmentState{
			Module:     shader,
			EntryPoint: "fs_main",
			Targets: []wgpu.ColorTargetState{
				{
					Format:    target,
					WriteMask: wgpu.ColorWriteMaskAll,
				},
			},
		},
		Primitive: &wgpu.PrimitiveState{
			Topology:         wgpu.PrimitiveTopologyTriangleList,
			StripIndexFormat: ^wgpu.IndexFormat(0),
			FrontFace:        wgpu.FrontFaceCCW,
			CullMode:         wgpu.CullModeBack,
		},
		Multisample: &wgpu.MultisampleState{
			Count:                  1,
			Mask:                   ^uint32(0),
			AlphaToCoverageEnabled: false,
		},
	})
	return &pipeline{
		BindLayout: bindLayout,
		Pipeline:   pl,
	}
}

// target returns the render target texture view for a destination image,
// creating it on first use.
func (r *Renderer) target(img *tilecl.Image, wf wgpu.TextureFormat) *wgpu.TextureView {
	r.mu.Lock()
	defer r.mu.Unlock()
	if view, ok := r.targets[img]; ok {
		return view
	}
	tex := r.Device.CreateTexture(&wgpu.TextureDescriptor{
		Label: "blit target",
		Size: wgpu.Extent3D{
			Width:              img.Width,
			Height:             img.Height,
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Usage:         wgpu.TextureUsageRenderAttachment | wgpu.TextureUsageTextureBinding,
		Format:        wf,
	})
	defer tex.Release()
	view := tex.CreateView(nil)
	r.targets[img] = view
	return view
}

// uploadSource creates a texture holding the source level and fills it from
// the image's memory. Only raster slices can be uploaded directly.
func (r *Renderer) uploadSource(src *tilecl.Image, level, layer uint32, wf wgpu.TextureFormat) (*wgpu.TextureView, func(), error) {
	slice := &src.Slices[level]
	if slice.Tiling != hw.MemoryFormatRaster {
		return nil, nil, fmt.Errorf("blitfallback: cannot sample %v-tiled source", slice.Tiling)
	}

	tex := r.Device.CreateTexture(&wgpu.TextureDescriptor{
		Label: "blit source",
		Size: wgpu.Extent3D{
			Width:              slice.Width,
			Height:             slice.Height,
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Usage:         wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopyDst,
		Format:        wf,
	})
	view := tex.CreateView(nil)
	release := func() {
		view.Release()
		tex.Release()
	}

	data := src.Mem.Map()
	off := src.LayerOffset(level, layer)
	r.Queue.WriteTexture(
		&wgpu.ImageCopyTexture{
			Texture:  tex,
			MipLevel: 0,
			Origin:   wgpu.Origin3D{X: 0, Y: 0, Z: 0},
			Aspect:   wgpu.TextureAspectAll,
		},
		data[off:off+slice.Size],
		&wgpu.TextureDataLayout{
			Offset:       0,
			BytesPerRow:  slice.Stride,
			RowsPerImage: 0,
		},
		&wgpu.Extent3D{
			Width:              slice.Width,
			Height:             slice.Height,
			DepthOrArrayLayers: 1,
		},
	)
	src.Mem.Unmap()
	return view, release, nil
}

// Blit renders one region of src into the target texture of dst.
// TODO: linear filtering needs a sampler bind; textureLoad always picks a
// single texel.
func (r *Renderer) Blit(dst, src *tilecl.Image, region *tilecl.ImageBlit, filterLinear bool) error {
	if region.DstAspect != format.AspectColor || region.SrcAspect != format.AspectColor {
		return fmt.Errorf("blitfallback: only color blits are supported")
	}
	dstFormat, err := textureFormat(dst.Format)
	if err != nil {
		return err
	}
	srcFormat, err := textureFormat(src.Format)
	if err != nil {
		return err
	}

	srcBox, dstBox := transfer.BlitBoxes(region)
	p := r.getOrCreate(dst.Format, dstFormat)
	targetView := r.target(dst, dstFormat)

	for l := uint32(0); l < region.LayerCount; l++ {
		srcView, release, err := r.uploadSource(src, region.SrcMipLevel, region.SrcBaseLayer+l, srcFormat)
		if err != nil {
			return err
		}
		defer release()

		params := [10]int32{
			srcBox.X, srcBox.Y,
			int32(srcBox.W), int32(srcBox.H),
			dstBox.X, dstBox.Y,
			int32(dstBox.W), int32(dstBox.H),
		}
		if srcBox.MirrorX {
			params[8] = 1
		}
		if srcBox.MirrorY {
			params[9] = 1
		}
		paramBuf := r.Device.CreateBuffer(&wgpu.BufferDescriptor{
			Label: "blit params",
			Size:  uint64(len(params) * 4),
			Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
		})
		defer paramBuf.Release()
		r.Queue.WriteBuffer(paramBuf, 0, safeish.SliceCast[[]byte](params[:]))

		bindGroup := r.Device.CreateBindGroup(&wgpu.BindGroupDescriptor{
			Layout: p.BindLayout,
			Entries: []wgpu.BindGroupEntry{
				{
					Binding:     0,
					TextureView: srcView,
					Size:        ^uint64(0),
				},
				{
					Binding: 1,
					Buffer:  paramBuf,
					Size:    ^uint64(0),
				},
			},
		})
		defer bindGroup.Release()

		encoder := r.Device.CreateCommandEncoder(&wgpu.CommandEncoderDescriptor{Label: "blitter"})
		defer encoder.Release()
		renderPass := encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
			ColorAttachments: []wgpu.RenderPassColorAttachment{
				{
					View:    targetView,
					LoadOp:  wgpu.LoadOpLoad,
					StoreOp: wgpu.StoreOpStore,
				},
			},
		})
		defer renderPass.Release()

		renderPass.SetPipeline(p.Pipeline)
		renderPass.SetBindGroup(0, bindGroup, nil)
		renderPass.Draw(6, 1, 0, 0)
		renderPass.End()

		cmd := encoder.Finish(nil)
		defer cmd.Release()
		r.Queue.Submit(cmd)
	}
	return nil
}

var _ transfer.BlitRenderer = (*Renderer)(nil)
