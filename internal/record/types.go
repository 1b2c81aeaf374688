package record

// Entity collection names. These are the keys of the client-side state tree:
// each holds an {entities, order} pair in the store.
const (
	TypeRecord        = "crecord"
	TypePerson        = "person"
	TypeAliases       = "aliases"
	TypeCases         = "cases"
	TypeCharges       = "charges"
	TypeSentences     = "sentences"
	TypeSourceRecords = "sourceRecords"
	TypePetitions     = "petitions"
)

// Singleton slices of the state tree. Unlike collections these hold a single
// value, not an {entities, order} pair.
const (
	SliceAttorney = "attorney"
	SliceUser     = "user"
	SliceAnalysis = "analysis"
)

// RootRecordID is the fixed identifier of the criminal-record root entity.
// One record describes one person's full case history, so the client only
// ever holds a single root.
const RootRecordID = "root"

// Source-record fetch statuses. Documents are fetched from the court portal
// before they can be parsed and integrated.
const (
	FetchStatusNotFetched  = "NOT_FETCHED"
	FetchStatusFetching    = "FETCHING"
	FetchStatusFetched     = "FETCHED"
	FetchStatusFetchFailed = "FETCH_FAILED"
)

// Source-record parse statuses.
const (
	ParseStatusUnknown = "UNKNOWN"
	ParseStatusSuccess = "SUCCESSFULLY_PARSED"
	ParseStatusFailed  = "PARSE_FAILED"
)

// Courts a source record may come from.
const (
	CourtCP  = "CP"
	CourtMDJ = "MDJ"
)

// Source-record document types.
const (
	RecTypeDocketPDF  = "DOCKET_PDF"
	RecTypeSummaryPDF = "SUMMARY_PDF"
)
