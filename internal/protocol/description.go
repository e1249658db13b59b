package protocol

// ProtocolType is the wire value type of an entity, derived by the (out
// of scope) XML profile parser from a content-type code table. The core
// consumes it as an opaque label; "" means absent.
type ProtocolType string

const (
	Boolean ProtocolType = "Boolean"
	Integer ProtocolType = "Integer"
	Float   ProtocolType = "Float"
	String  ProtocolType = "String"
	Object  ProtocolType = "Object"
)

func (p ProtocolType) String() string { return string(p) }

// Access describes whether, and how, an entity can be read or written.
// "" means absent.
type Access string

const (
	AccessNone       Access = "None"
	AccessRead       Access = "Read"
	AccessReadWrite  Access = "ReadWrite"
	AccessWriteOnly  Access = "WriteOnly"
	AccessReadStatic Access = "ReadStatic"
)

func (a Access) String() string { return string(a) }

func (a Access) Readable() bool {
	return a == AccessRead || a == AccessReadWrite || a == AccessReadStatic
}

func (a Access) Writable() bool {
	return a == AccessReadWrite || a == AccessWriteOnly
}

// Availability is the tri-valued available flag of §3: true, false, or
// unknown (absent on the wire).
type Availability int

const (
	AvailableUnknown Availability = iota
	AvailableTrue
	AvailableFalse
)

// Execution governs which operations a program entity supports.
type Execution string

const (
	ExecutionNone           Execution = "None"
	ExecutionSelectOnly     Execution = "SelectOnly"
	ExecutionStartOnly      Execution = "StartOnly"
	ExecutionSelectAndStart Execution = "SelectAndStart"
)

func (e Execution) String() string { return string(e) }

// EntityDescription is one parsed feature of the appliance profile:
// immutable, produced by the (out of scope) XML parser and consumed
// as-is by the runtime in internal/entity and internal/wiring.
type EntityDescription struct {
	UID          uint32
	Name         string
	ProtocolType ProtocolType
	Access       Access
	Available    Availability
	Min          *float64
	Max          *float64
	Step         *float64
	EnumMap      map[int]string
	OptionUIDs   []uint32
	Execution    Execution
}

// DeviceInfo is the small brand/type/model/version/revision map carried
// alongside a device description.
type DeviceInfo struct {
	Brand    string
	Type     string
	Model    string
	Version  string
	Revision string
}

// DeviceDescription is the full parser output for one appliance: six
// categorised entity lists plus the optional program singletons and
// info block.
type DeviceDescription struct {
	Status  []EntityDescription
	Setting []EntityDescription
	Event   []EntityDescription
	Command []EntityDescription
	Option  []EntityDescription
	Program []EntityDescription

	ActiveProgram   *EntityDescription
	SelectedProgram *EntityDescription

	Info DeviceInfo
}
