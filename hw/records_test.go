package hw

import (
	"reflect"
	"testing"

	"github.com/tilegpu/tilecl/cl"
	"github.com/tilegpu/tilecl/mem"
)

func emit(recs ...cl.Record) []byte {
	c := cl.New(mem.NewArena(), nil)
	for _, rec := range recs {
		c.Emit(rec)
	}
	return c.Data
}

func TestDecodeRoundTrip(t *testing.T) {
	recs := []cl.Record{
		&TileRenderingModeCfgCommon{
			EarlyZDisable:                true,
			ImageWidthPixels:             800,
			ImageHeightPixels:            600,
			NumberOfRenderTargets:        1,
			MaximumBPPOfAllRenderTargets: InternalBPP64,
		},
		&TileRenderingModeCfgColor{
			RenderTarget0InternalBPP:  InternalBPP32,
			RenderTarget0InternalType: InternalType8UI,
		},
		&TileRenderingModeCfgZSClearValues{ZClearValue: 1.0, StencilClearValue: 0x80},
		&TileRenderingModeCfgClearColorsPart3{
			UIFPaddedHeightInUIFBlocks: 20,
			ClearColorHigh16Bits:       0xbeef,
		},
		&SupertileCoordinates{ColumnNumberInSupertiles: 3, RowNumberInSupertiles: 7},
		&ClearTileBuffers{ClearZStencilBuffer: true, ClearAllRenderTargets: true},
		&NumberOfLayers{Layers: 6},
		&TileListInitialBlockSize{
			UseAutoChainedTileLists:            true,
			SizeOfFirstBlockInChainedTileLists: TileAllocBlockSize64B,
		},
		&StoreTileBufferGeneral{
			BufferToStore:      TileBufferRenderTarget0,
			ChannelReverse:     true,
			RBSwap:             true,
			MemoryFormat:       MemoryFormatUIFNoXor,
			DecimateMode:       DecimateModeAllSamples,
			OutputImageFormat:  OutputImageFormatRGBA8UI,
			HeightInUBOrStride: 37,
		},
		&LoadTileBufferGeneral{
			BufferToLoad:       TileBufferZStencil,
			MemoryFormat:       MemoryFormatRaster,
			InputImageFormat:   OutputImageFormatR8UI,
			HeightInUBOrStride: 4096,
		},
		&EndOfRendering{},
	}

	data := emit(recs...)
	i := 0
	for got := range Walk(data) {
		if i >= len(recs) {
			t.Fatalf("decoded %d records, emitted %d", i+1, len(recs))
		}
		if !reflect.DeepEqual(got, recs[i]) {
			t.Errorf("record %d decoded as %#v, want %#v", i, got, recs[i])
		}
		i++
	}
	if i != len(recs) {
		t.Errorf("decoded %d records, emitted %d", i, len(recs))
	}
}

func TestDecodeErrors(t *testing.T) {
	if _, _, err := Decode(nil); err == nil {
		t.Error("decoding an empty stream should fail")
	}
	if _, _, err := Decode([]byte{0xff}); err == nil {
		t.Error("decoding an unknown opcode should fail")
	}
	data := emit(&SupertileCoordinates{})
	if _, _, err := Decode(data[:3]); err == nil {
		t.Error("decoding a truncated record should fail")
	}
}

func TestRecordSizes(t *testing.T) {
	// Stream addressing depends on these byte counts exactly.
	tests := []struct {
		rec  cl.Record
		size int
	}{
		{&TileBinningModeCfg{}, 16},
		{&TileRenderingModeCfgCommon{}, 12},
		{&TileRenderingModeCfgClearColorsPart1{}, 12},
		{&TileRenderingModeCfgClearColorsPart2{}, 12},
		{&TileRenderingModeCfgClearColorsPart3{}, 8},
		{&TileRenderingModeCfgColor{}, 5},
		{&TileRenderingModeCfgZSClearValues{}, 7},
		{&StoreTileBufferGeneral{}, 13},
		{&LoadTileBufferGeneral{}, 13},
		{&StartAddressOfGenericTileList{}, 9},
		{&MulticoreRenderingSupertileCfg{}, 12},
		{&EndOfLoads{}, 1},
	}
	for _, tt := range tests {
		if got := tt.rec.Size(); got != tt.size {
			t.Errorf("%T size = %d, want %d", tt.rec, got, tt.size)
		}
		data := emit(tt.rec)
		if len(data) != tt.size {
			t.Errorf("%T emitted %d bytes, want %d", tt.rec, len(data), tt.size)
		}
	}
}

func TestInternalBPPBytes(t *testing.T) {
	if InternalBPP32.Bytes() != 4 || InternalBPP64.Bytes() != 8 || InternalBPP128.Bytes() != 16 {
		t.Errorf("bpp byte sizes: %d %d %d", InternalBPP32.Bytes(), InternalBPP64.Bytes(), InternalBPP128.Bytes())
	}
}
