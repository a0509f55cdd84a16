package codegen

import "cgbridge/internal/types"

// TypeQuerier answers type-system questions. *types.Querier implements it.
type TypeQuerier interface {
	NeedsDrop(ty types.TypeID, env types.ParamEnv) bool
	IsSized(ty types.TypeID, env types.ParamEnv) bool
	IsFreeze(ty types.TypeID, env types.ParamEnv) bool
}

// Code generation sees through every opaque type, so all three queries run
// in the reveal-all environment.

// TypeNeedsDrop reports whether values of ty need drop glue.
func TypeNeedsDrop(q TypeQuerier, ty types.TypeID) bool {
	return q.NeedsDrop(ty, types.RevealAllEnv())
}

// TypeIsSized reports whether ty has a statically known size.
func TypeIsSized(q TypeQuerier, ty types.TypeID) bool {
	return q.IsSized(ty, types.RevealAllEnv())
}

// TypeIsFreeze reports whether ty is free of interior mutability.
func TypeIsFreeze(q TypeQuerier, ty types.TypeID) bool {
	return q.IsFreeze(ty, types.RevealAllEnv())
}
