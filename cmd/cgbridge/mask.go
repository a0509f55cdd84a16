package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"cgbridge/internal/backend/eval"
	"cgbridge/internal/codegen"
	"cgbridge/internal/mir"
	"cgbridge/internal/types"
)

var maskCmd = &cobra.Command{
	Use:   "mask [flags] <type>",
	Short: "Print the shift mask of an integer or integer vector type",
	Long: `Print the mask applied to unchecked shift amounts, e.g. 7 for i8 or
<31, 31, 31, 31> for <4 x i32>. With --invert the complement is printed.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		invert, err := cmd.Flags().GetBool("invert")
		if err != nil {
			return err
		}
		out, err := shiftMask(args[0], invert)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), out)
		return err
	},
}

func init() {
	maskCmd.Flags().Bool("invert", false, "print the inverted mask")
}

// shiftMask evaluates the mask of typeName on the constant-evaluating backend.
func shiftMask(typeName string, invert bool) (string, error) {
	in := types.NewInterner()
	ty, err := mir.ParseType(in, mir.Scope{}, typeName)
	if err != nil {
		return "", err
	}
	cx := eval.New()
	bt, ok := evalType(cx, in, ty)
	if !ok {
		return "", fmt.Errorf("%s cannot be shifted: expected an integer or integer vector type", in.Name(ty))
	}
	mask := codegen.ShiftMaskVal(cx.NewBuilder(), bt, bt, invert)
	// the inverted mask is a signed constant
	return cx.Format(mask, invert || in.IsSigned(ty)), nil
}

func evalType(cx *eval.Context, in *types.Interner, ty types.TypeID) (codegen.Type, bool) {
	t, ok := in.Lookup(ty)
	if !ok {
		return 0, false
	}
	switch t.Kind {
	case types.KindInt, types.KindUint:
		return cx.TypeIx(uint64(t.Width)), true
	case types.KindVector:
		elem, ok := evalType(cx, in, t.Elem)
		if !ok {
			return 0, false
		}
		return cx.TypeVector(elem, uint64(t.Count)), true
	default:
		return 0, false
	}
}
