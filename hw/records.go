package hw

import (
	"encoding/binary"
	"fmt"
	"iter"
	"math"

	"github.com/tilegpu/tilecl/cl"
)

// Control-list opcodes.
const (
	opFlush                                = 4
	opStartTileBinning                     = 6
	opIncrementSemaphore                   = 7
	opTileCoordinates                      = 9
	opTileCoordinatesImplicit              = 10
	opEndOfTileMarker                      = 11
	opEndOfRendering                       = 13
	opSupertileCoordinates                 = 15
	opStartAddressOfGenericTileList        = 16
	opBranchToImplicitTileList             = 17
	opReturnFromSubList                    = 18
	opClearTileBuffers                     = 25
	opEndOfLoads                           = 26
	opStoreTileBufferGeneral               = 29
	opLoadTileBufferGeneral                = 30
	opFlushVCDCache                        = 33
	opMulticoreRenderingTileListSetBase    = 37
	opMulticoreRenderingSupertileCfg       = 38
	opNumberOfLayers                       = 118
	opTileBinningModeCfg                   = 119
	opTileRenderingModeCfgCommon           = 120
	opTileRenderingModeCfgClearColorsPart1 = 121
	opTileRenderingModeCfgClearColorsPart2 = 122
	opTileRenderingModeCfgClearColorsPart3 = 123
	opTileRenderingModeCfgColor            = 124
	opTileRenderingModeCfgZSClearValues    = 125
	opTileListInitialBlockSize             = 126
)

func putBool(b []byte, pos int, bit uint, v bool) {
	if v {
		b[pos] |= 1 << bit
	}
}

func getBool(b []byte, pos int, bit uint) bool {
	return b[pos]&(1<<bit) != 0
}

type TileRenderingModeCfgCommon struct {
	EarlyZDisable                bool
	ImageWidthPixels             uint16
	ImageHeightPixels            uint16
	NumberOfRenderTargets        uint8
	MultisampleMode4X            bool
	MaximumBPPOfAllRenderTargets InternalBPP
}

func (*TileRenderingModeCfgCommon) Opcode() uint8 { return opTileRenderingModeCfgCommon }
func (*TileRenderingModeCfgCommon) Size() int     { return 12 }

func (r *TileRenderingModeCfgCommon) Pack(b []byte, f *cl.Fields) {
	binary.LittleEndian.PutUint16(b[0:], r.ImageWidthPixels)
	binary.LittleEndian.PutUint16(b[2:], r.ImageHeightPixels)
	b[4] = r.NumberOfRenderTargets
	putBool(b, 5, 0, r.EarlyZDisable)
	putBool(b, 5, 1, r.MultisampleMode4X)
	b[6] = uint8(r.MaximumBPPOfAllRenderTargets)
}

func (r *TileRenderingModeCfgCommon) unpack(b []byte) {
	r.ImageWidthPixels = binary.LittleEndian.Uint16(b[0:])
	r.ImageHeightPixels = binary.LittleEndian.Uint16(b[2:])
	r.NumberOfRenderTargets = b[4]
	r.EarlyZDisable = getBool(b, 5, 0)
	r.MultisampleMode4X = getBool(b, 5, 1)
	r.MaximumBPPOfAllRenderTargets = InternalBPP(b[6])
}

type TileRenderingModeCfgClearColorsPart1 struct {
	ClearColorLow32Bits  uint32
	ClearColorNext24Bits uint32
	RenderTargetNumber   uint8
}

func (*TileRenderingModeCfgClearColorsPart1) Opcode() uint8 {
	return opTileRenderingModeCfgClearColorsPart1
}
func (*TileRenderingModeCfgClearColorsPart1) Size() int { return 12 }

func (r *TileRenderingModeCfgClearColorsPart1) Pack(b []byte, f *cl.Fields) {
	binary.LittleEndian.PutUint32(b[0:], r.ClearColorLow32Bits)
	b[4] = uint8(r.ClearColorNext24Bits)
	b[5] = uint8(r.ClearColorNext24Bits >> 8)
	b[6] = uint8(r.ClearColorNext24Bits >> 16)
	b[7] = r.RenderTargetNumber
}

func (r *TileRenderingModeCfgClearColorsPart1) unpack(b []byte) {
	r.ClearColorLow32Bits = binary.LittleEndian.Uint32(b[0:])
	r.ClearColorNext24Bits = uint32(b[4]) | uint32(b[5])<<8 | uint32(b[6])<<16
	r.RenderTargetNumber = b[7]
}

type TileRenderingModeCfgClearColorsPart2 struct {
	ClearColorMidLow32Bits  uint32
	ClearColorMidHigh24Bits uint32
	RenderTargetNumber      uint8
}

func (*TileRenderingModeCfgClearColorsPart2) Opcode() uint8 {
	return opTileRenderingModeCfgClearColorsPart2
}
func (*TileRenderingModeCfgClearColorsPart2) Size() int { return 12 }

func (r *TileRenderingModeCfgClearColorsPart2) Pack(b []byte, f *cl.Fields) {
	binary.LittleEndian.PutUint32(b[0:], r.ClearColorMidLow32Bits)
	b[4] = uint8(r.ClearColorMidHigh24Bits)
	b[5] = uint8(r.ClearColorMidHigh24Bits >> 8)
	b[6] = uint8(r.ClearColorMidHigh24Bits >> 16)
	b[7] = r.RenderTargetNumber
}

func (r *TileRenderingModeCfgClearColorsPart2) unpack(b []byte) {
	r.ClearColorMidLow32Bits = binary.LittleEndian.Uint32(b[0:])
	r.ClearColorMidHigh24Bits = uint32(b[4]) | uint32(b[5])<<8 | uint32(b[6])<<16
	r.RenderTargetNumber = b[7]
}

type TileRenderingModeCfgClearColorsPart3 struct {
	UIFPaddedHeightInUIFBlocks uint16
	ClearColorHigh16Bits       uint16
	RenderTargetNumber         uint8
}

func (*TileRenderingModeCfgClearColorsPart3) Opcode() uint8 {
	return opTileRenderingModeCfgClearColorsPart3
}
func (*TileRenderingModeCfgClearColorsPart3) Size() int { return 8 }

func (r *TileRenderingModeCfgClearColorsPart3) Pack(b []byte, f *cl.Fields) {
	binary.LittleEndian.PutUint16(b[0:], r.UIFPaddedHeightInUIFBlocks)
	binary.LittleEndian.PutUint16(b[2:], r.ClearColorHigh16Bits)
	b[4] = r.RenderTargetNumber
}

func (r *TileRenderingModeCfgClearColorsPart3) unpack(b []byte) {
	r.UIFPaddedHeightInUIFBlocks = binary.LittleEndian.Uint16(b[0:])
	r.ClearColorHigh16Bits = binary.LittleEndian.Uint16(b[2:])
	r.RenderTargetNumber = b[4]
}

type TileRenderingModeCfgColor struct {
	RenderTarget0InternalBPP  InternalBPP
	RenderTarget0InternalType InternalType
	RenderTarget0Clamp        RenderTargetClamp
}

func (*TileRenderingModeCfgColor) Opcode() uint8 { return opTileRenderingModeCfgColor }
func (*TileRenderingModeCfgColor) Size() int     { return 5 }

func (r *TileRenderingModeCfgColor) Pack(b []byte, f *cl.Fields) {
	b[0] = uint8(r.RenderTarget0InternalBPP)
	b[1] = uint8(r.RenderTarget0InternalType)
	b[2] = uint8(r.RenderTarget0Clamp)
}

func (r *TileRenderingModeCfgColor) unpack(b []byte) {
	r.RenderTarget0InternalBPP = InternalBPP(b[0])
	r.RenderTarget0InternalType = InternalType(b[1])
	r.RenderTarget0Clamp = RenderTargetClamp(b[2])
}

type TileRenderingModeCfgZSClearValues struct {
	ZClearValue       float32
	StencilClearValue uint8
}

func (*TileRenderingModeCfgZSClearValues) Opcode() uint8 { return opTileRenderingModeCfgZSClearValues }
func (*TileRenderingModeCfgZSClearValues) Size() int     { return 7 }

func (r *TileRenderingModeCfgZSClearValues) Pack(b []byte, f *cl.Fields) {
	binary.LittleEndian.PutUint32(b[0:], math.Float32bits(r.ZClearValue))
	b[4] = r.StencilClearValue
}

func (r *TileRenderingModeCfgZSClearValues) unpack(b []byte) {
	r.ZClearValue = math.Float32frombits(binary.LittleEndian.Uint32(b[0:]))
	r.StencilClearValue = b[4]
}

type TileListInitialBlockSize struct {
	UseAutoChainedTileLists            bool
	SizeOfFirstBlockInChainedTileLists TileAllocBlockSize
}

func (*TileListInitialBlockSize) Opcode() uint8 { return opTileListInitialBlockSize }
func (*TileListInitialBlockSize) Size() int     { return 2 }

func (r *TileListInitialBlockSize) Pack(b []byte, f *cl.Fields) {
	putBool(b, 0, 0, r.UseAutoChainedTileLists)
	b[0] |= uint8(r.SizeOfFirstBlockInChainedTileLists) << 1
}

func (r *TileListInitialBlockSize) unpack(b []byte) {
	r.UseAutoChainedTileLists = getBool(b, 0, 0)
	r.SizeOfFirstBlockInChainedTileLists = TileAllocBlockSize(b[0] >> 1 & 3)
}

type MulticoreRenderingTileListSetBase struct {
	Address cl.Address
}

func (*MulticoreRenderingTileListSetBase) Opcode() uint8 { return opMulticoreRenderingTileListSetBase }
func (*MulticoreRenderingTileListSetBase) Size() int     { return 5 }

func (r *MulticoreRenderingTileListSetBase) Pack(b []byte, f *cl.Fields) {
	f.PutAddress(b, 0, r.Address)
}

func (r *MulticoreRenderingTileListSetBase) unpack(b []byte) {
	r.Address = cl.Address{Offset: binary.LittleEndian.Uint32(b[0:])}
}

type MulticoreRenderingSupertileCfg struct {
	NumberOfBinTileLists         uint8
	TotalFrameWidthInTiles       uint16
	TotalFrameHeightInTiles      uint16
	SupertileWidthInTiles        uint8
	SupertileHeightInTiles       uint8
	TotalFrameWidthInSupertiles  uint16
	TotalFrameHeightInSupertiles uint16
}

func (*MulticoreRenderingSupertileCfg) Opcode() uint8 { return opMulticoreRenderingSupertileCfg }
func (*MulticoreRenderingSupertileCfg) Size() int     { return 12 }

func (r *MulticoreRenderingSupertileCfg) Pack(b []byte, f *cl.Fields) {
	b[0] = r.NumberOfBinTileLists
	binary.LittleEndian.PutUint16(b[1:], r.TotalFrameWidthInTiles)
	binary.LittleEndian.PutUint16(b[3:], r.TotalFrameHeightInTiles)
	b[5] = r.SupertileWidthInTiles
	b[6] = r.SupertileHeightInTiles
	binary.LittleEndian.PutUint16(b[7:], r.TotalFrameWidthInSupertiles)
	binary.LittleEndian.PutUint16(b[9:], r.TotalFrameHeightInSupertiles)
}

func (r *MulticoreRenderingSupertileCfg) unpack(b []byte) {
	r.NumberOfBinTileLists = b[0]
	r.TotalFrameWidthInTiles = binary.LittleEndian.Uint16(b[1:])
	r.TotalFrameHeightInTiles = binary.LittleEndian.Uint16(b[3:])
	r.SupertileWidthInTiles = b[5]
	r.SupertileHeightInTiles = b[6]
	r.TotalFrameWidthInSupertiles = binary.LittleEndian.Uint16(b[7:])
	r.TotalFrameHeightInSupertiles = binary.LittleEndian.Uint16(b[9:])
}

type TileCoordinates struct {
	ColumnNumberInSupertiles uint16
	RowNumberInSupertiles    uint16
}

func (*TileCoordinates) Opcode() uint8 { return opTileCoordinates }
func (*TileCoordinates) Size() int     { return 5 }

func (r *TileCoordinates) Pack(b []byte, f *cl.Fields) {
	binary.LittleEndian.PutUint16(b[0:], r.ColumnNumberInSupertiles)
	binary.LittleEndian.PutUint16(b[2:], r.RowNumberInSupertiles)
}

func (r *TileCoordinates) unpack(b []byte) {
	r.ColumnNumberInSupertiles = binary.LittleEndian.Uint16(b[0:])
	r.RowNumberInSupertiles = binary.LittleEndian.Uint16(b[2:])
}

type TileCoordinatesImplicit struct{}

func (*TileCoordinatesImplicit) Opcode() uint8            { return opTileCoordinatesImplicit }
func (*TileCoordinatesImplicit) Size() int                { return 1 }
func (*TileCoordinatesImplicit) Pack([]byte, *cl.Fields) {}

type EndOfLoads struct{}

func (*EndOfLoads) Opcode() uint8            { return opEndOfLoads }
func (*EndOfLoads) Size() int                { return 1 }
func (*EndOfLoads) Pack([]byte, *cl.Fields) {}

type EndOfTileMarker struct{}

func (*EndOfTileMarker) Opcode() uint8            { return opEndOfTileMarker }
func (*EndOfTileMarker) Size() int                { return 1 }
func (*EndOfTileMarker) Pack([]byte, *cl.Fields) {}

type FlushVCDCache struct{}

func (*FlushVCDCache) Opcode() uint8            { return opFlushVCDCache }
func (*FlushVCDCache) Size() int                { return 1 }
func (*FlushVCDCache) Pack([]byte, *cl.Fields) {}

type ReturnFromSubList struct{}

func (*ReturnFromSubList) Opcode() uint8            { return opReturnFromSubList }
func (*ReturnFromSubList) Size() int                { return 1 }
func (*ReturnFromSubList) Pack([]byte, *cl.Fields) {}

type EndOfRendering struct{}

func (*EndOfRendering) Opcode() uint8            { return opEndOfRendering }
func (*EndOfRendering) Size() int                { return 1 }
func (*EndOfRendering) Pack([]byte, *cl.Fields) {}

type BranchToImplicitTileList struct{}

func (*BranchToImplicitTileList) Opcode() uint8            { return opBranchToImplicitTileList }
func (*BranchToImplicitTileList) Size() int                { return 1 }
func (*BranchToImplicitTileList) Pack([]byte, *cl.Fields) {}

type StartTileBinning struct{}

func (*StartTileBinning) Opcode() uint8            { return opStartTileBinning }
func (*StartTileBinning) Size() int                { return 1 }
func (*StartTileBinning) Pack([]byte, *cl.Fields) {}

type IncrementSemaphore struct{}

func (*IncrementSemaphore) Opcode() uint8            { return opIncrementSemaphore }
func (*IncrementSemaphore) Size() int                { return 1 }
func (*IncrementSemaphore) Pack([]byte, *cl.Fields) {}

type Flush struct{}

func (*Flush) Opcode() uint8            { return opFlush }
func (*Flush) Size() int                { return 1 }
func (*Flush) Pack([]byte, *cl.Fields) {}

type ClearTileBuffers struct {
	ClearZStencilBuffer   bool
	ClearAllRenderTargets bool
}

func (*ClearTileBuffers) Opcode() uint8 { return opClearTileBuffers }
func (*ClearTileBuffers) Size() int     { return 2 }

func (r *ClearTileBuffers) Pack(b []byte, f *cl.Fields) {
	putBool(b, 0, 0, r.ClearZStencilBuffer)
	putBool(b, 0, 1, r.ClearAllRenderTargets)
}

func (r *ClearTileBuffers) unpack(b []byte) {
	r.ClearZStencilBuffer = getBool(b, 0, 0)
	r.ClearAllRenderTargets = getBool(b, 0, 1)
}

type LoadTileBufferGeneral struct {
	BufferToLoad       TileBuffer
	ChannelReverse     bool
	RBSwap             bool
	MemoryFormat       MemoryFormat
	DecimateMode       DecimateMode
	InputImageFormat   OutputImageFormat
	HeightInUBOrStride uint32
	Address            cl.Address
}

func (*LoadTileBufferGeneral) Opcode() uint8 { return opLoadTileBufferGeneral }
func (*LoadTileBufferGeneral) Size() int     { return 13 }

func (r *LoadTileBufferGeneral) Pack(b []byte, f *cl.Fields) {
	b[0] = uint8(r.BufferToLoad) & 0xf
	putBool(b, 0, 4, r.ChannelReverse)
	putBool(b, 0, 5, r.RBSwap)
	b[1] = uint8(r.MemoryFormat)&0xf | uint8(r.DecimateMode)<<4
	b[2] = uint8(r.InputImageFormat)
	binary.LittleEndian.PutUint32(b[4:], r.HeightInUBOrStride)
	f.PutAddress(b, 8, r.Address)
}

func (r *LoadTileBufferGeneral) unpack(b []byte) {
	r.BufferToLoad = TileBuffer(b[0] & 0xf)
	r.ChannelReverse = getBool(b, 0, 4)
	r.RBSwap = getBool(b, 0, 5)
	r.MemoryFormat = MemoryFormat(b[1] & 0xf)
	r.DecimateMode = DecimateMode(b[1] >> 4)
	r.InputImageFormat = OutputImageFormat(b[2])
	r.HeightInUBOrStride = binary.LittleEndian.Uint32(b[4:])
	r.Address = cl.Address{Offset: binary.LittleEndian.Uint32(b[8:])}
}

type StoreTileBufferGeneral struct {
	BufferToStore          TileBuffer
	ChannelReverse         bool
	RBSwap                 bool
	ClearBufferBeingStored bool
	MemoryFormat           MemoryFormat
	DecimateMode           DecimateMode
	OutputImageFormat      OutputImageFormat
	HeightInUBOrStride     uint32
	Address                cl.Address
}

func (*StoreTileBufferGeneral) Opcode() uint8 { return opStoreTileBufferGeneral }
func (*StoreTileBufferGeneral) Size() int     { return 13 }

func (r *StoreTileBufferGeneral) Pack(b []byte, f *cl.Fields) {
	b[0] = uint8(r.BufferToStore) & 0xf
	putBool(b, 0, 4, r.ChannelReverse)
	putBool(b, 0, 5, r.RBSwap)
	putBool(b, 0, 6, r.ClearBufferBeingStored)
	b[1] = uint8(r.MemoryFormat)&0xf | uint8(r.DecimateMode)<<4
	b[2] = uint8(r.OutputImageFormat)
	binary.LittleEndian.PutUint32(b[4:], r.HeightInUBOrStride)
	f.PutAddress(b, 8, r.Address)
}

func (r *StoreTileBufferGeneral) unpack(b []byte) {
	r.BufferToStore = TileBuffer(b[0] & 0xf)
	r.ChannelReverse = getBool(b, 0, 4)
	r.RBSwap = getBool(b, 0, 5)
	r.ClearBufferBeingStored = getBool(b, 0, 6)
	r.MemoryFormat = MemoryFormat(b[1] & 0xf)
	r.DecimateMode = DecimateMode(b[1] >> 4)
	r.OutputImageFormat = OutputImageFormat(b[2])
	r.HeightInUBOrStride = binary.LittleEndian.Uint32(b[4:])
	r.Address = cl.Address{Offset: binary.LittleEndian.Uint32(b[8:])}
}

type StartAddressOfGenericTileList struct {
	Start cl.Address
	End   cl.Address
}

func (*StartAddressOfGenericTileList) Opcode() uint8 { return opStartAddressOfGenericTileList }
func (*StartAddressOfGenericTileList) Size() int     { return 9 }

func (r *StartAddressOfGenericTileList) Pack(b []byte, f *cl.Fields) {
	f.PutAddress(b, 0, r.Start)
	f.PutAddress(b, 4, r.End)
}

func (r *StartAddressOfGenericTileList) unpack(b []byte) {
	r.Start = cl.Address{Offset: binary.LittleEndian.Uint32(b[0:])}
	r.End = cl.Address{Offset: binary.LittleEndian.Uint32(b[4:])}
}

type SupertileCoordinates struct {
	ColumnNumberInSupertiles uint16
	RowNumberInSupertiles    uint16
}

func (*SupertileCoordinates) Opcode() uint8 { return opSupertileCoordinates }
func (*SupertileCoordinates) Size() int     { return 5 }

func (r *SupertileCoordinates) Pack(b []byte, f *cl.Fields) {
	binary.LittleEndian.PutUint16(b[0:], r.ColumnNumberInSupertiles)
	binary.LittleEndian.PutUint16(b[2:], r.RowNumberInSupertiles)
}

func (r *SupertileCoordinates) unpack(b []byte) {
	r.ColumnNumberInSupertiles = binary.LittleEndian.Uint16(b[0:])
	r.RowNumberInSupertiles = binary.LittleEndian.Uint16(b[2:])
}

type NumberOfLayers struct {
	Layers uint8
}

func (*NumberOfLayers) Opcode() uint8 { return opNumberOfLayers }
func (*NumberOfLayers) Size() int     { return 2 }

func (r *NumberOfLayers) Pack(b []byte, f *cl.Fields) {
	b[0] = r.Layers
}

func (r *NumberOfLayers) unpack(b []byte) {
	r.Layers = b[0]
}

type TileBinningModeCfg struct {
	TileAllocationAddress        cl.Address
	TileStateAddress             cl.Address
	WidthInTiles                 uint16
	HeightInTiles                uint16
	MaximumBPPOfAllRenderTargets InternalBPP
	AutoInitializeTileState      bool
	TileAllocationBlockSize      TileAllocBlockSize
}

func (*TileBinningModeCfg) Opcode() uint8 { return opTileBinningModeCfg }
func (*TileBinningModeCfg) Size() int     { return 16 }

func (r *TileBinningModeCfg) Pack(b []byte, f *cl.Fields) {
	f.PutAddress(b, 0, r.TileAllocationAddress)
	f.PutAddress(b, 4, r.TileStateAddress)
	binary.LittleEndian.PutUint16(b[8:], r.WidthInTiles)
	binary.LittleEndian.PutUint16(b[10:], r.HeightInTiles)
	b[12] = uint8(r.MaximumBPPOfAllRenderTargets) & 3
	putBool(b, 12, 2, r.AutoInitializeTileState)
	b[12] |= uint8(r.TileAllocationBlockSize) << 3
}

func (r *TileBinningModeCfg) unpack(b []byte) {
	r.TileAllocationAddress = cl.Address{Offset: binary.LittleEndian.Uint32(b[0:])}
	r.TileStateAddress = cl.Address{Offset: binary.LittleEndian.Uint32(b[4:])}
	r.WidthInTiles = binary.LittleEndian.Uint16(b[8:])
	r.HeightInTiles = binary.LittleEndian.Uint16(b[10:])
	r.MaximumBPPOfAllRenderTargets = InternalBPP(b[12] & 3)
	r.AutoInitializeTileState = getBool(b, 12, 2)
	r.TileAllocationBlockSize = TileAllocBlockSize(b[12] >> 3 & 3)
}

type unpacker interface {
	cl.Record
	unpack(b []byte)
}

func newRecord(opcode uint8) cl.Record {
	switch opcode {
	case opFlush:
		return &Flush{}
	case opStartTileBinning:
		return &StartTileBinning{}
	case opIncrementSemaphore:
		return &IncrementSemaphore{}
	case opTileCoordinates:
		return &TileCoordinates{}
	case opTileCoordinatesImplicit:
		return &TileCoordinatesImplicit{}
	case opEndOfTileMarker:
		return &EndOfTileMarker{}
	case opEndOfRendering:
		return &EndOfRendering{}
	case opSupertileCoordinates:
		return &SupertileCoordinates{}
	case opStartAddressOfGenericTileList:
		return &StartAddressOfGenericTileList{}
	case opBranchToImplicitTileList:
		return &BranchToImplicitTileList{}
	case opReturnFromSubList:
		return &ReturnFromSubList{}
	case opClearTileBuffers:
		return &ClearTileBuffers{}
	case opEndOfLoads:
		return &EndOfLoads{}
	case opStoreTileBufferGeneral:
		return &StoreTileBufferGeneral{}
	case opLoadTileBufferGeneral:
		return &LoadTileBufferGeneral{}
	case opFlushVCDCache:
		return &FlushVCDCache{}
	case opMulticoreRenderingTileListSetBase:
		return &MulticoreRenderingTileListSetBase{}
	case opMulticoreRenderingSupertileCfg:
		return &MulticoreRenderingSupertileCfg{}
	case opNumberOfLayers:
		return &NumberOfLayers{}
	case opTileBinningModeCfg:
		return &TileBinningModeCfg{}
	case opTileRenderingModeCfgCommon:
		return &TileRenderingModeCfgCommon{}
	case opTileRenderingModeCfgClearColorsPart1:
		return &TileRenderingModeCfgClearColorsPart1{}
	case opTileRenderingModeCfgClearColorsPart2:
		return &TileRenderingModeCfgClearColorsPart2{}
	case opTileRenderingModeCfgClearColorsPart3:
		return &TileRenderingModeCfgClearColorsPart3{}
	case opTileRenderingModeCfgColor:
		return &TileRenderingModeCfgColor{}
	case opTileRenderingModeCfgZSClearValues:
		return &TileRenderingModeCfgZSClearValues{}
	case opTileListInitialBlockSize:
		return &TileListInitialBlockSize{}
	default:
		return nil
	}
}

// Decode reads one record from the front of data. The address fields of
// decoded records hold raw offsets; their buffer identity is not recoverable
// from the byte stream.
func Decode(data []byte) (cl.Record, int, error) {
	if len(data) == 0 {
		return nil, 0, fmt.Errorf("hw: empty stream")
	}
	rec := newRecord(data[0])
	if rec == nil {
		return nil, 0, fmt.Errorf("hw: unknown opcode %d", data[0])
	}
	size := rec.Size()
	if len(data) < size {
		return nil, 0, fmt.Errorf("hw: truncated record %T: have %d bytes, want %d", rec, len(data), size)
	}
	if u, ok := rec.(unpacker); ok {
		u.unpack(data[1:size])
	}
	return rec, size, nil
}

// Walk yields the records of a complete stream in order. It panics on
// malformed input; it is meant for inspecting streams this package produced.
func Walk(data []byte) iter.Seq[cl.Record] {
	return func(yield func(cl.Record) bool) {
		for len(data) > 0 {
			rec, n, err := Decode(data)
			if err != nil {
				panic(err)
			}
			data = data[n:]
			if !yield(rec) {
				return
			}
		}
	}
}
