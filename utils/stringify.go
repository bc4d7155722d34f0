package utils

import (
	"fmt"

	"github.com/fatih/color"

	"golang.org/x/tools/go/ssa"
)

var funColor = func(is ...interface{}) string {
	return CanColorize(color.New(color.FgHiYellow).SprintFunc())(is...)
}
var blkColor = func(is ...interface{}) string {
	return CanColorize(color.New(color.FgHiCyan).SprintFunc())(is...)
}
var insColor = func(is ...interface{}) string {
	return CanColorize(color.New(color.FgHiWhite, color.Faint).SprintFunc())(is...)
}

func SSAFunString(fun *ssa.Function) string {
	if fun == nil {
		return funColor("<nil>")
	}
	return funColor(fun.String())
}

// SSAInstrString prints an instruction prefixed by its function and block.
func SSAInstrString(instr ssa.Instruction) string {
	blk := instr.Block()
	if blk == nil {
		return insColor(instr.String())
	}
	return SSAFunString(blk.Parent()) + ":" + blkColor(fmt.Sprintf("%d", blk.Index)) + ": " + insColor(instr.String())
}
