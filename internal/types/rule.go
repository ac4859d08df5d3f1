package types

// SimpleOperator is the comparison operator of a Simple condition.
type SimpleOperator string

const (
	OpEqual      SimpleOperator = "="
	OpNotEqual   SimpleOperator = "!="
	OpLess       SimpleOperator = "<"
	OpLessEq     SimpleOperator = "<="
	OpGreater    SimpleOperator = ">"
	OpGreaterEq  SimpleOperator = ">="
	OpContains   SimpleOperator = "contains"
	OpStartsWith SimpleOperator = "starts_with"
	OpEndsWith   SimpleOperator = "ends_with"
	OpIn         SimpleOperator = "in"
)

// LogicalOperator combines sub-conditions in a Complex condition.
type LogicalOperator string

const (
	LogicalAnd LogicalOperator = "and"
	LogicalOr  LogicalOperator = "or"
	LogicalNot LogicalOperator = "not"
)

// AggregationKind is the reduction performed by an Aggregation condition.
type AggregationKind string

const (
	AggSum        AggregationKind = "sum"
	AggCount      AggregationKind = "count"
	AggAvg        AggregationKind = "avg"
	AggMin        AggregationKind = "min"
	AggMax        AggregationKind = "max"
	AggStddev     AggregationKind = "stddev"
	AggPercentile AggregationKind = "percentile"
)

// ConditionType discriminates the Condition union (spec.md §3).
type ConditionType string

const (
	ConditionSimple      ConditionType = "simple"
	ConditionComplex     ConditionType = "complex"
	ConditionAggregation ConditionType = "aggregation"
	ConditionStream      ConditionType = "stream"
)

// WindowKind distinguishes session vs sliding windows for Stream conditions.
type WindowKind string

const (
	WindowSliding WindowKind = "sliding"
	WindowSession WindowKind = "session"
)

// Window bounds a Stream or windowed Aggregation condition. Size and Slide
// are in the same unit as the watermark advanced into the engine (spec.md
// §9 — time advances only via an explicit watermark, never wall-clock).
type Window struct {
	Kind   WindowKind
	Size   int64 // duration in milliseconds
	Slide  int64 // for sliding windows; 0 means tumbling
	GapGap int64 // session-window inactivity gap, in milliseconds
}

// Condition is the tagged union from spec.md §3.
type Condition struct {
	Type ConditionType

	// Simple
	Field    string
	Operator SimpleOperator
	Value    FactValue
	InValues []FactValue // for OpIn

	// ValueRef, when non-empty, compares Field against a field on the
	// rule's primary matched fact instead of Value — the cross-fact join
	// key declaration described in spec.md §4.2 step 4. Used inside a
	// `not` sub-condition to express things like `order_id = order.id`.
	ValueRef string

	// Complex
	Logical LogicalOperator
	Sub     []Condition

	// Aggregation / Stream
	AggKind       AggregationKind
	Percentile    float64 // used when AggKind == AggPercentile
	SourceField   string
	GroupBy       []string
	Having        *Condition
	Alias         string
	Window        *Window
	StreamFilter  *Condition
}

// ActionType discriminates the Action union (spec.md §3).
type ActionType string

const (
	ActionLog           ActionType = "log"
	ActionSetField      ActionType = "set_field"
	ActionUnsetField    ActionType = "unset_field"
	ActionCreateFact    ActionType = "create_fact"
	ActionCallCalc      ActionType = "call_calculator"
	ActionTriggerAlert  ActionType = "trigger_alert"
	ActionFormula       ActionType = "formula"
)

// AlertSeverity ranks a trigger_alert action.
type AlertSeverity string

const (
	SeverityInfo     AlertSeverity = "info"
	SeverityWarning  AlertSeverity = "warning"
	SeverityCritical AlertSeverity = "critical"
)

// Action is the tagged union from spec.md §3.
type Action struct {
	Type ActionType

	Message string // log

	Field string // set_field / unset_field / formula output field
	Value FactValue // set_field literal value (if Ref == "")
	Ref   string    // set_field: read value from this bound-fact field instead of a literal

	NewFactFields map[string]ActionFieldValue // create_fact

	CalculatorName   string            // call_calculator
	CalculatorInputs map[string]string // calculator input name -> bound field the input is read from
	CalculatorOutput string            // call_calculator: field to write the result to

	AlertType     string        // trigger_alert
	AlertSeverity AlertSeverity // trigger_alert
	AlertMessage  string        // trigger_alert
	AlertMetadata map[string]FactValue

	Formula string // formula: arithmetic/string expression text
}

// ActionFieldValue is either a literal FactValue or a reference to a field
// on one of the token's bound facts, used by create_fact.
type ActionFieldValue struct {
	Literal FactValue
	Ref     string // non-empty means "read from bound fact field Ref"
}

// RuleID identifies a rule across compilations.
type RuleID string

// Rule is a compiled-once, evaluated-many unit (spec.md §3).
type Rule struct {
	ID          RuleID
	Name        string
	Description string
	Conditions  []Condition
	Actions     []Action
	Priority    int
	Tags        []string
	Enabled     bool
}
