package diag

import (
	"fmt"
)

type Code uint16

const (
	// Неизвестная ошибка - на первое время
	UnknownCode Code = 0

	// Кодогенерация
	CgInfo               Code = 4000
	CgMissingLangItem    Code = 4001
	CgFatal              Code = 4002
	CgUnsupportedType    Code = 4003
	CgUnsupportedOp      Code = 4004
	CgBadOperand         Code = 4005
	CgUnknownLocal       Code = 4006
	CgDuplicateFunc      Code = 4007
	CgAtomicOnFreezeType Code = 4008

	// Проект / манифест
	ProjInfo            Code = 5000
	ProjMissingManifest Code = 5001
	ProjInvalidManifest Code = 5002
	ProjNoUnits         Code = 5003
	ProjBadLangItems    Code = 5004
	ProjBadUnit         Code = 5005

	// Ввод-вывод
	IOInfo          Code = 6000
	IOLoadFileError Code = 6001
	IOWriteError    Code = 6002
	IOCacheError    Code = 6003

	// Внутренние ошибки компилятора
	ICEInfo Code = 9000
	ICEBug  Code = 9001
)

var (
	codeDescription = map[Code]string{
		UnknownCode:          "Unknown error",
		CgInfo:               "Codegen information",
		CgMissingLangItem:    "Missing language item",
		CgFatal:              "Fatal codegen error",
		CgUnsupportedType:    "Type is not supported by the code generator",
		CgUnsupportedOp:      "Operation is not supported by the code generator",
		CgBadOperand:         "Malformed operand",
		CgUnknownLocal:       "Reference to an unknown local",
		CgDuplicateFunc:      "Duplicate function in compilation unit",
		CgAtomicOnFreezeType: "Atomic update of a type without interior mutability",
		ProjInfo:             "Project information",
		ProjMissingManifest:  "Missing cgbridge.toml",
		ProjInvalidManifest:  "Invalid project manifest",
		ProjNoUnits:          "No compilation units",
		ProjBadLangItems:     "Invalid lang item table",
		ProjBadUnit:          "Invalid compilation unit description",
		IOInfo:               "I/O information",
		IOLoadFileError:      "I/O load file error",
		IOWriteError:         "I/O write error",
		IOCacheError:         "Incremental cache error",
		ICEInfo:              "Internal compiler information",
		ICEBug:               "Internal compiler error",
	}
)

func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 4000 && ic < 5000:
		return fmt.Sprintf("CG%04d", ic)
	case ic >= 5000 && ic < 6000:
		return fmt.Sprintf("PRJ%04d", ic)
	case ic >= 6000 && ic < 7000:
		return fmt.Sprintf("IO%04d", ic)
	case ic >= 9000 && ic < 10000:
		return fmt.Sprintf("ICE%04d", ic)
	}
	return "E0000"
}

func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[UnknownCode]
	}
	return desc
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}
