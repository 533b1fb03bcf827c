// Package result defines the shared data model for queries, raw provider
// results, and ranked responses.
package result

// QueryKind classifies what a search is looking for.
type QueryKind string

const (
	KindPerson   QueryKind = "person"
	KindBusiness QueryKind = "business"
	KindCriminal QueryKind = "criminal"
	KindProperty QueryKind = "property"
	KindAdvanced QueryKind = "advanced"
)

// DataType tags what kind of record a provider returned.
type DataType string

const (
	TypePersonalInfo         DataType = "personal_info"
	TypeCriminalRecords      DataType = "criminal_records"
	TypeCourtRecords         DataType = "court_records"
	TypePropertyRecords      DataType = "property_records"
	TypeBusinessRecords      DataType = "business_records"
	TypeSocialMedia          DataType = "social_media"
	TypePhoneInfo            DataType = "phone_info"
	TypeEmailInfo            DataType = "email_info"
	TypeAddressInfo          DataType = "address_info"
	TypeFinancialRecords     DataType = "financial_records"
	TypeVoterRecords         DataType = "voter_records"
	TypeProfessionalLicenses DataType = "professional_licenses"
	TypeBreachRecords        DataType = "breach_records"
	TypeBackgroundCheck      DataType = "background_check"
	TypeCorrelatedEntity     DataType = "correlated_entity"
)

// Well-known provider source names. Providers register under these names
// and the reliability table keys off them.
const (
	SourceCourtRecords         = "court_records"
	SourcePropertyRecords      = "property_records"
	SourceBusinessRecords      = "business_records"
	SourceSocialMedia          = "social_media"
	SourcePhoneDirectories     = "phone_directories"
	SourceEmailDatabases       = "email_databases"
	SourceGovernmentAPIs       = "government_apis"
	SourceNewsMedia            = "news_media"
	SourceVoterRecords         = "voter_records"
	SourceCriminalRecords      = "criminal_records"
	SourceLeakDatabases        = "leak_databases"
	SourceDirectory            = "directory"
	SourceEntityCorrelation    = "entity_correlation"
	SourceIdentityVerification = "identity_verification"
)

// Metadata keys attached to results during correlation and scoring.
const (
	MetaEntityID              = "entity_id"
	MetaSourceCount           = "source_count"
	MetaSources               = "sources"
	MetaCorrelatedEntityID    = "correlated_entity_id"
	MetaCorrelationConfidence = "correlation_confidence"
	MetaCompositeScore        = "composite_score"
)

// Comparable fields used for entity similarity and relevance scoring.
var ComparableFields = []string{"name", "email", "phone", "address"}
