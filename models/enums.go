package models

// Role is a team member's field role. Admin unlocks the report export.
type Role string

const (
	RoleTDR   Role = "TDR"
	RoleMDR   Role = "MDR"
	RoleBALT  Role = "BA-LT"
	RoleAdmin Role = "Admin"
)

type Region string

const (
	RegionCentral Region = "Central"
)

type Cluster string

const (
	ClusterNorthWest    Cluster = "North West"
	ClusterNorthernCape Cluster = "Northern Cape"
	ClusterFreeState    Cluster = "Free State"
)

// SubmissionType selects which submission table an operation targets.
type SubmissionType string

const (
	SubmissionTypeRGM SubmissionType = "RGM"
	SubmissionTypeMAU SubmissionType = "MAU"
)

// SubmissionTable maps a submission type to its table. The table names are
// carried over from the spreadsheet era (including the singular
// "mau_submission") so existing exports keep lining up.
func SubmissionTable(t SubmissionType) (string, bool) {
	switch t {
	case SubmissionTypeRGM:
		return "rgm_submissions", true
	case SubmissionTypeMAU:
		return "mau_submission", true
	default:
		return "", false
	}
}

// OnboardType decides which onboarding table holds the row.
type OnboardType string

const (
	OnboardTypeCriminalCheck OnboardType = "Criminal Check"
	OnboardTypeNewUpload     OnboardType = "New Upload"
	OnboardTypeReUpload      OnboardType = "Re-Upload"
)

// OnboardSheet is the client-facing selector for the two onboarding tables.
type OnboardSheet string

const (
	OnboardSheetCC      OnboardSheet = "CC"
	OnboardSheetRegular OnboardSheet = "Regular"
)

func OnboardTable(s OnboardSheet) (string, bool) {
	switch s {
	case OnboardSheetCC:
		return "onboard_cc", true
	case OnboardSheetRegular:
		return "onboards", true
	default:
		return "", false
	}
}

// OnboardTableForType: criminal checks live in their own table.
func OnboardTableForType(t OnboardType) string {
	if t == OnboardTypeCriminalCheck {
		return "onboard_cc"
	}
	return "onboards"
}

// Channel values recorded on onboarding rows, derived from the submitter's
// role when the client doesn't send one.
const (
	OnboardChannelBA    = "BA"
	OnboardChannelSpaza = "Spaza"
)
