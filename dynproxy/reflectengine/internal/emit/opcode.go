package emit

import "strconv"

// OpCode names one primitive step of a method body.
type OpCode uint8

const (
	OpNop OpCode = iota
	OpEnter
	OpLoadDispatch
	OpLoadTargetType
	OpLoadTarget
	OpLoadInterceptors
	OpBranchIfNoInterceptors
	OpBoxByRef
	OpInvokeChain
	OpConvertResults
	OpStoreByRef
	OpBranch
	OpCallDirect
	OpSubstituteSelf
	OpReleaseTarget
	OpExit
	OpReturn
)

var opNames = [...]string{
	OpNop:                    "Nop",
	OpEnter:                  "Enter",
	OpLoadDispatch:           "LoadDispatch",
	OpLoadTargetType:         "LoadTargetType",
	OpLoadTarget:             "LoadTarget",
	OpLoadInterceptors:       "LoadInterceptors",
	OpBranchIfNoInterceptors: "BranchIfNoInterceptors",
	OpBoxByRef:               "BoxByRef",
	OpInvokeChain:            "InvokeChain",
	OpConvertResults:         "ConvertResults",
	OpStoreByRef:             "StoreByRef",
	OpBranch:                 "Branch",
	OpCallDirect:             "CallDirect",
	OpSubstituteSelf:         "SubstituteSelf",
	OpReleaseTarget:          "ReleaseTarget",
	OpExit:                   "Exit",
	OpReturn:                 "Return",
}

func (op OpCode) String() string {
	if int(op) < len(opNames) {
		return opNames[op]
	}

	return "OpCode(" + strconv.Itoa(int(op)) + ")"
}
