package domain

// Routing targets the classifier may pick. Tickets may carry other strings.
const (
	DepartmentSoftwareTeam   = "Software Team"
	DepartmentHardwareTeam   = "Hardware Team"
	DepartmentNetworkTeam    = "Network Team"
	DepartmentITSecurity     = "IT Security"
	DepartmentGeneralSupport = "General Support"
)

// Departments lists the known routing targets.
var Departments = []string{
	DepartmentSoftwareTeam,
	DepartmentHardwareTeam,
	DepartmentNetworkTeam,
	DepartmentITSecurity,
	DepartmentGeneralSupport,
}
