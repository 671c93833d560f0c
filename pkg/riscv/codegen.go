// Package riscv renders an ir.Module to RISC-V 32-bit text assembly using a
// spill-everything scheme: every VirtReg lives in a stack slot, every
// computation runs through two fixed scratch registers.
package riscv

import (
	"fmt"
	"io"

	"github.com/its-hmny/firststep/pkg/ir"
	"github.com/its-hmny/firststep/pkg/token"
)

// Fixed scratch registers. t0 always holds the result of the instruction
// just emitted; t1 holds the lhs of a binary operation across the
// evaluation of its rhs.
const (
	regResult = "t0"
	regTemp   = "t1"
	regRA     = "ra"
	regSP     = "sp"
)

// Emitter writes assembly for one module to out.
type Emitter struct {
	out io.Writer
}

// New returns an Emitter writing to out.
func New(out io.Writer) *Emitter { return &Emitter{out: out} }

// EmitModule writes every user-defined function in mod, in definition
// order. input/print have no body (empty FunctionDef.Insts): they're
// declared external and linked in by the host runtime, so nothing is
// emitted for them here.
func (e *Emitter) EmitModule(mod *ir.Module) {
	for _, name := range mod.Order {
		e.emitFunction(mod.Funcs[name])
	}
}

func (e *Emitter) printf(format string, args ...any) {
	fmt.Fprintf(e.out, format, args...)
}

// slotsOf compacts the VirtReg ids actually referenced by a function into a
// dense 0..S-1 range, in order of first appearance; S is that count.
func slotsOf(fn *ir.FunctionDef) (slot map[int]int, count int) {
	slot = make(map[int]int)
	assign := func(v ir.Val) {
		if r, ok := v.(ir.VirtReg); ok {
			if _, seen := slot[r.ID]; !seen {
				slot[r.ID] = count
				count++
			}
		}
	}
	for _, inst := range fn.Insts {
		switch in := inst.(type) {
		case ir.Assign:
			assign(in.Dest)
			assign(in.Src)
		case ir.Branch:
			assign(in.Cond)
		case ir.Call:
			assign(in.Dest)
			for _, a := range in.Args {
				assign(a)
			}
		case ir.Return:
			assign(in.Val)
		case ir.Binary:
			assign(in.Dest)
			assign(in.Lhs)
			assign(in.Rhs)
		case ir.Unary:
			assign(in.Dest)
			assign(in.Opr)
		}
	}
	return slot, count
}

// frameSize rounds the frame up to 16-byte stack alignment, with one extra
// row reserved for the return-address slot.
func frameSize(argCount, slotCount int) int {
	return (((argCount+slotCount)/4 + 1) * 16)
}

// Frame layout, low to high: local slots, parameter save slots, return
// address at the top. Kept as named helpers rather than inline arithmetic
// scattered across emitFunction/emitEpilogue.
func offsetSlot(id int) int { return id * 4 }
func offsetParam(frame, i int) int { return frame - 4*(i+2) }
func offsetRA(frame int) int { return frame - 4 }

func (e *Emitter) emitFunction(fn *ir.FunctionDef) {
	slot, slotCount := slotsOf(fn)
	frame := frameSize(fn.ArgCount, slotCount)

	e.printf(".text\n")
	e.printf(".globl %s\n", fn.Name)
	e.printf("%s:\n", fn.Name)

	e.printf("\taddi %s, %s, -%d\n", regSP, regSP, frame)
	e.printf("\tsw %s, %d(%s)\n", regRA, offsetRA(frame), regSP)
	for i := 0; i < fn.ArgCount; i++ {
		e.printf("\tsw s%d, %d(%s)\n", i, offsetParam(frame, i), regSP)
		e.printf("\tmv s%d, a%d\n", i, i)
	}

	for _, inst := range fn.Insts {
		e.emitInst(inst, slot, frame, fn.ArgCount)
	}
}

// emitEpilogue restores callee-saved registers and returns. Emitted once
// per Return instruction; there is no shared exit block.
func (e *Emitter) emitEpilogue(frame, argCount int) {
	e.printf("\tmv a0, %s\n", regResult)
	for i := 0; i < argCount; i++ {
		e.printf("\tlw s%d, %d(%s)\n", i, offsetParam(frame, i), regSP)
	}
	e.printf("\tlw %s, %d(%s)\n", regRA, offsetRA(frame), regSP)
	e.printf("\taddi %s, %s, %d\n", regSP, regSP, frame)
	e.printf("\tret\n")
}

// readVal emits code that leaves v's value in reg.
func (e *Emitter) readVal(v ir.Val, slot map[int]int, frame int, reg string) {
	switch val := v.(type) {
	case ir.VirtReg:
		e.printf("\tlw %s, %d(%s)\n", reg, offsetSlot(slot[val.ID]), regSP)
	case ir.ArgRef:
		e.printf("\tmv %s, s%d\n", reg, val.Index)
	case ir.Int:
		e.printf("\tli %s, %d\n", reg, val.Value)
	case ir.Label:
		panic("riscv: label is not a readable value")
	default:
		panic("riscv: unknown value kind")
	}
}

// writeVal emits code that stores reg's value into dest (only VirtReg and
// ArgRef are ever write targets).
func (e *Emitter) writeVal(dest ir.Val, slot map[int]int, frame int, reg string) {
	switch val := dest.(type) {
	case ir.VirtReg:
		e.printf("\tsw %s, %d(%s)\n", reg, offsetSlot(slot[val.ID]), regSP)
	case ir.ArgRef:
		e.printf("\tmv s%d, %s\n", val.Index, reg)
	default:
		panic("riscv: invalid assignment target")
	}
}

func (e *Emitter) emitInst(inst ir.Instruction, slot map[int]int, frame, argCount int) {
	switch in := inst.(type) {
	case ir.Assign:
		e.readVal(in.Src, slot, frame, regResult)
		e.writeVal(in.Dest, slot, frame, regResult)

	case ir.Branch:
		e.readVal(in.Cond, slot, frame, regResult)
		if in.Kind == ir.BNEZ {
			e.printf("\tbnez %s, .L%d\n", regResult, in.Target.ID)
		} else {
			e.printf("\tbeqz %s, .L%d\n", regResult, in.Target.ID)
		}

	case ir.Jump:
		e.printf("\tj .L%d\n", in.Target.ID)

	case ir.LabelDef:
		e.printf(".L%d:\n", in.Target.ID)

	case ir.Call:
		for i, arg := range in.Args {
			e.readVal(arg, slot, frame, regResult)
			e.printf("\tmv a%d, %s\n", i, regResult)
		}
		e.printf("\tcall %s\n", in.Callee)
		e.printf("\tmv %s, a0\n", regResult)
		e.writeVal(in.Dest, slot, frame, regResult)

	case ir.Return:
		e.readVal(in.Val, slot, frame, regResult)
		e.emitEpilogue(frame, argCount)

	case ir.Binary:
		e.readVal(in.Lhs, slot, frame, regResult)
		e.printf("\tmv %s, %s\n", regTemp, regResult)
		e.readVal(in.Rhs, slot, frame, regResult)
		e.emitBinaryOp(in.Op)
		e.writeVal(in.Dest, slot, frame, regResult)

	case ir.Unary:
		e.readVal(in.Opr, slot, frame, regResult)
		switch in.Op {
		case token.Sub:
			e.printf("\tneg %s, %s\n", regResult, regResult)
		case token.LNot:
			e.printf("\tseqz %s, %s\n", regResult, regResult)
		default:
			panic("riscv: unknown unary operator")
		}
		e.writeVal(in.Dest, slot, frame, regResult)

	default:
		panic("riscv: unknown instruction kind")
	}
}

// emitBinaryOp computes regTemp <op> regResult into regResult. LessEq is
// rendered as not-greater (`sgt` then `seqz`) rather than a swapped-operand
// `slt`.
func (e *Emitter) emitBinaryOp(op token.Operator) {
	switch op {
	case token.Add:
		e.printf("\tadd %s, %s, %s\n", regResult, regTemp, regResult)
	case token.Sub:
		e.printf("\tsub %s, %s, %s\n", regResult, regTemp, regResult)
	case token.Mul:
		e.printf("\tmul %s, %s, %s\n", regResult, regTemp, regResult)
	case token.Div:
		e.printf("\tdiv %s, %s, %s\n", regResult, regTemp, regResult)
	case token.Mod:
		e.printf("\trem %s, %s, %s\n", regResult, regTemp, regResult)
	case token.Less:
		e.printf("\tslt %s, %s, %s\n", regResult, regTemp, regResult)
	case token.LessEq:
		e.printf("\tsgt %s, %s, %s\n", regResult, regTemp, regResult)
		e.printf("\tseqz %s, %s\n", regResult, regResult)
	case token.Eq:
		e.printf("\txor %s, %s, %s\n", regResult, regTemp, regResult)
		e.printf("\tseqz %s, %s\n", regResult, regResult)
	case token.NotEq:
		e.printf("\txor %s, %s, %s\n", regResult, regTemp, regResult)
		e.printf("\tsnez %s, %s\n", regResult, regResult)
	default:
		panic("riscv: unknown binary operator")
	}
}
