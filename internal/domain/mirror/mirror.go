// Package mirror selects the source and download endpoints for a run.
package mirror

import (
	"context"
	"fmt"
	"strings"

	"github.com/felixgeelhaar/comfyboot/internal/ports"
)

// Region selects a mirror set.
type Region string

const (
	// RegionAuto resolves the region with a geolocation lookup.
	RegionAuto Region = "auto"
	// RegionDefault uses the upstream hosts.
	RegionDefault Region = "default"
	// RegionCN uses mirrors reachable from mainland China.
	RegionCN Region = "cn"
)

// alternateCountry is the country code that selects RegionCN.
const alternateCountry = "CN"

// ParseRegion parses a configured region name.
func ParseRegion(raw string) (Region, error) {
	switch Region(strings.ToLower(strings.TrimSpace(raw))) {
	case "", RegionAuto:
		return RegionAuto, nil
	case RegionDefault:
		return RegionDefault, nil
	case RegionCN:
		return RegionCN, nil
	default:
		return "", fmt.Errorf("unknown region %q (want auto, default or cn)", raw)
	}
}

// Set is the group of endpoints used by one run. It is never modified after
// selection.
type Set struct {
	ComfyUI       string
	GGUF          string
	Manager       string
	Comfyscope    string
	PipIndex      string
	TunnelPackage string
}

// Default returns the upstream endpoint set.
func Default() Set {
	return Set{
		ComfyUI:       "https://github.com/comfyanonymous/ComfyUI.git",
		GGUF:          "https://github.com/city96/ComfyUI-GGUF.git",
		Manager:       "https://github.com/ltdrdata/ComfyUI-Manager.git",
		Comfyscope:    "https://github.com/modelscope/comfyscope.git",
		PipIndex:      "https://pypi.org/simple",
		TunnelPackage: "https://github.com/cloudflare/cloudflared/releases/latest/download/cloudflared-linux-amd64.deb",
	}
}

// Alternate returns the endpoint set for RegionCN.
func Alternate() Set {
	return Set{
		ComfyUI:       "https://gitee.com/honwee/ComfyUI.git",
		GGUF:          "https://gitee.com/honwee/ComfyUI-GGUF.git",
		Manager:       "https://gitee.com/honwee/ComfyUI-Manager.git",
		Comfyscope:    "https://gitee.com/honwee/comfyscope.git",
		PipIndex:      "https://mirrors.aliyun.com/pypi/simple/",
		TunnelPackage: "https://modelscope.oss-cn-beijing.aliyuncs.com/resource/cloudflared-linux-amd64.deb",
	}
}

// For returns the set for a resolved region. RegionAuto falls back to the
// default set.
func For(region Region) Set {
	if region == RegionCN {
		return Alternate()
	}
	return Default()
}

// Diff lists the names of the endpoints that differ between s and other.
func (s Set) Diff(other Set) []string {
	var names []string
	pairs := []struct {
		name string
		a, b string
	}{
		{"comfyui", s.ComfyUI, other.ComfyUI},
		{"gguf", s.GGUF, other.GGUF},
		{"manager", s.Manager, other.Manager},
		{"comfyscope", s.Comfyscope, other.Comfyscope},
		{"pip_index", s.PipIndex, other.PipIndex},
		{"tunnel_package", s.TunnelPackage, other.TunnelPackage},
	}
	for _, p := range pairs {
		if p.a != p.b {
			names = append(names, p.name)
		}
	}
	return names
}

// Resolve determines the region for a run. A configured region other than
// RegionAuto is returned as-is. Otherwise one lookup is made; any failure
// selects RegionDefault and is logged as a warning, never returned.
func Resolve(ctx context.Context, configured Region, locator ports.Locator, logger ports.Logger) Region {
	if configured != RegionAuto && configured != "" {
		return configured
	}
	if locator == nil {
		return RegionDefault
	}

	loc, err := locator.Locate(ctx)
	if err != nil {
		logger.Warn(ctx, "could not determine location, using default mirrors", ports.Err(err))
		return RegionDefault
	}

	logger.Debug(ctx, "resolved location", ports.F("country", loc.CountryCode))
	if strings.EqualFold(loc.CountryCode, alternateCountry) {
		return RegionCN
	}
	return RegionDefault
}
