package ir

import "fmt"

// StatusType classifies a status/error code by the subsystem that raised it.
type StatusType uint8

const (
	StatusOk StatusType = iota
	StatusUnknownError
	StatusHostValueError
	StatusHostObjectError
	StatusHostFunctionError
	StatusHostStorageError
	StatusHostContextError
	StatusVmError
	StatusContractError

	numStatusTypes
)

var statusTypeNames = [numStatusTypes]string{
	StatusOk:                "ok",
	StatusUnknownError:      "unknown_error",
	StatusHostValueError:    "host_value_error",
	StatusHostObjectError:   "host_object_error",
	StatusHostFunctionError: "host_function_error",
	StatusHostStorageError:  "host_storage_error",
	StatusHostContextError:  "host_context_error",
	StatusVmError:           "vm_error",
	StatusContractError:     "contract_error",
}

func (t StatusType) String() string {
	if !t.Valid() {
		return fmt.Sprintf("status_type(%d)", uint8(t))
	}
	return statusTypeNames[t]
}

// Valid reports whether t is a declared status type.
func (t StatusType) Valid() bool {
	return t < numStatusTypes
}

// StatusTypes returns every declared status type in order.
func StatusTypes() []StatusType {
	types := make([]StatusType, 0, numStatusTypes)
	for t := StatusType(0); t < numStatusTypes; t++ {
		types = append(types, t)
	}
	return types
}

// ParseStatusType parses the names produced by StatusType.String.
func ParseStatusType(s string) (StatusType, error) {
	for t, name := range statusTypeNames {
		if name == s {
			return StatusType(t), nil
		}
	}
	return 0, fmt.Errorf("unknown status type %q", s)
}

// Status is a status/error code. Statuses order by Type, then Code.
//
// A status only exists meaningfully inside a host: it has a structured form so
// that it can be written down (scenarios, diagnostics), but a runtime status is
// never converted into one.
type Status struct {
	Type StatusType
	Code uint32
}
