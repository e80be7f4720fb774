package uat978

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/uatradio/uat978/adsb"
	"github.com/uatradio/uat978/fisb"
)

// formatFISB renders a decoded FIS-B frame as one output line:
//
//	+<hex payload>;rs=<syncerrs>/<e0>:<e1>:<e2>:<e3>:<e4>:<e5>;ss=<strength>;t=<time>
//
// The leading '+' marks the line as FIS-B for downstream consumers.
func formatFISB(res fisb.Result, attr Attributes) string {
	return "+" + hex.EncodeToString(res.Payload) +
		";rs=" + attr.SyncErrors + "/" + fisbErrString(res.Errs) +
		";ss=" + attr.SignalText + ";t=" + attr.Time
}

// fisbErrString renders the per-block error counts, two digits each so
// the sentinels line up with real counts.
func fisbErrString(errs [fisb.Blocks]int) string {
	parts := make([]string, len(errs))
	for i, e := range errs {
		parts[i] = fmt.Sprintf("%02d", e)
	}
	return strings.Join(parts, ":")
}

// formatADSB renders a decoded ADS-B packet as one output line:
//
//	-<hex payload>;rs=<syncerrs>/<errs>[<partial>];ss=<strength>;t=<time>
//
// The leading '-' marks the line as ADS-B; partial, when non-empty, is
// the compact summary produced by adsb.Partial.
func formatADSB(res adsb.Result, attr Attributes, partial string) string {
	return "-" + hex.EncodeToString(res.Payload) +
		";rs=" + attr.SyncErrors + "/" + fmt.Sprintf("%d", res.Errs) + partial +
		";ss=" + attr.SignalText + ";t=" + attr.Time
}
