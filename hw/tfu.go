package hw

// Transfer-unit register fields. The TFU is programmed through packed
// register words rather than control-list records.
const (
	TFUICfgTTypeShift  = 9
	TFUICfgFormatShift = 18
	TFUICfgOPadShift   = 22

	TFUIOAFormatShift = 3
	// TFUIOADimTW marks the output as tiled in the IOA dimension field.
	// Raster outputs leave it clear, which is why a raster destination's
	// address rides in IOA undisturbed.
	TFUIOADimTW = 1 << 0

	TFUFormatRaster          = 0
	TFUFormatLineartile      = 11
	TFUFormatUBLinear1Column = 12
	TFUFormatUBLinear2Column = 13
	TFUFormatUIFNoXor        = 14
	TFUFormatUIFXor          = 15
)

// TFUFormat maps a memory format to its TFU format code.
func TFUFormat(m MemoryFormat) uint32 {
	switch m {
	case MemoryFormatRaster:
		return TFUFormatRaster
	case MemoryFormatLineartile:
		return TFUFormatLineartile
	case MemoryFormatUBLinear1Column:
		return TFUFormatUBLinear1Column
	case MemoryFormatUBLinear2Column:
		return TFUFormatUBLinear2Column
	case MemoryFormatUIFNoXor:
		return TFUFormatUIFNoXor
	case MemoryFormatUIFXor:
		return TFUFormatUIFXor
	default:
		panic("hw: unknown memory format")
	}
}
