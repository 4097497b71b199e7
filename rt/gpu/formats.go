package gpu

import (
	"strings"

	"github.com/gogpu/gputypes"
	"github.com/rotisserie/eris"
)

// ParseDepthFormat maps a config name such as "depth32float" to a depth format.
func ParseDepthFormat(name string) (gputypes.TextureFormat, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "depth16unorm":
		return gputypes.TextureFormatDepth16Unorm, nil
	case "depth24plus":
		return gputypes.TextureFormatDepth24Plus, nil
	case "depth24plusstencil8", "depth24plus-stencil8":
		return gputypes.TextureFormatDepth24PlusStencil8, nil
	case "depth32float", "":
		return gputypes.TextureFormatDepth32Float, nil
	case "depth32floatstencil8", "depth32float-stencil8":
		return gputypes.TextureFormatDepth32FloatStencil8, nil
	default:
		return 0, eris.Wrapf(ErrUnsupportedFormat, "depth format %q", name)
	}
}

// ValidateSampleCount accepts the sample counts every backend supports.
func ValidateSampleCount(samples uint32) error {
	switch samples {
	case 1, 4:
		return nil
	default:
		return eris.Errorf("unsupported msaa sample count %d, want 1 or 4", samples)
	}
}
