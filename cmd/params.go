package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cwbudde/swarmbench/internal/bench"
	"github.com/cwbudde/swarmbench/internal/experiment"
	"github.com/cwbudde/swarmbench/internal/swarm"
)

// parseParams turns repeated --param name=value flags into overrides.
func parseParams(flags []string) (swarm.Params, error) {
	params := make(swarm.Params, len(flags))
	for _, flag := range flags {
		name, raw, ok := strings.Cut(flag, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid parameter %q, expected name=value", flag)
		}
		v, err := swarm.ParseParam(raw)
		if err != nil {
			return nil, fmt.Errorf("parameter %s: %w", name, err)
		}
		params[strings.TrimSpace(name)] = v
	}
	return params, nil
}

// parseAxis reads "name=v1,v2,..." into a grid axis.
func parseAxis(flag string) (experiment.Axis, error) {
	name, raw, ok := strings.Cut(flag, "=")
	if !ok || name == "" || raw == "" {
		return experiment.Axis{}, fmt.Errorf("invalid axis %q, expected name=v1,v2,...", flag)
	}
	axis := experiment.Axis{Name: strings.TrimSpace(name)}
	for _, s := range strings.Split(raw, ",") {
		v, err := swarm.ParseParam(s)
		if err != nil {
			return experiment.Axis{}, fmt.Errorf("axis %s: %w", axis.Name, err)
		}
		axis.Values = append(axis.Values, v)
	}
	return axis, nil
}

// methodUsage lists the optimizer kinds for --method help.
func methodUsage() string {
	names := make([]string, 0, len(swarm.Kinds()))
	for _, k := range swarm.Kinds() {
		names = append(names, string(k))
	}
	return "Optimizer: " + strings.Join(names, ", ")
}

// functionIDs lists the supported CEC17 ids for help texts.
func functionIDs() string {
	ids := make([]string, 0, len(bench.CEC17IDs()))
	for _, id := range bench.CEC17IDs() {
		ids = append(ids, strconv.Itoa(id))
	}
	return strings.Join(ids, ",")
}

// functionUsage describes the values accepted by --function.
func functionUsage() string {
	return "CEC17 function id (" + functionIDs() + ") or one of: " + strings.Join(bench.Names(), ", ")
}
