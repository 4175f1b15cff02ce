package orchestrator

import (
	"fmt"
	"strings"

	"github.com/google/cel-go/cel"
)

// Rule is one condition/specialist pairing in the plan-generation rule
// table. Condition is a CEL expression evaluated against the lowercased
// query text (bound as the variable `query`); when it evaluates true the
// rule's agent/action is appended as a step.
type Rule struct {
	Name      string
	Condition string
	AgentName string
	Action    string
}

// DefaultRules mirrors the literal keyword classes: anomaly/irregularity/
// contract/bidding terms route to the anomaly detector, and so on. Using
// CEL instead of a hard if-chain makes the table data-driven — an
// operator can add a rule (e.g. a new specialist keyed on a new keyword
// class) without a code change — while preserving these exact defaults.
var DefaultRules = []Rule{
	{
		Name: "anomaly_detection",
		Condition: `query.contains("suspeito") || query.contains("anomalia") || query.contains("fraud") || ` +
			`query.contains("irregularidade") || query.contains("contrato") || query.contains("licitação") || ` +
			`query.contains("licitacao") || query.contains("superfaturamento") || query.contains("emergencial") || ` +
			`query.contains("anomaly") || query.contains("irregularity") || query.contains("contract") || query.contains("bidding")`,
		AgentName: "anomaly_detector",
		Action:    "detect_anomalies",
	},
	{
		Name: "policy_analysis",
		Condition: `query.contains("política") || query.contains("politica") || query.contains("efetividade") || ` +
			`query.contains("impacto") || query.contains("resultado") || query.contains("beneficiário") || ` +
			`query.contains("beneficiario") || query.contains("programa") || query.contains("projeto") || ` +
			`query.contains("investimento") || query.contains("policy") || query.contains("effectiveness") || ` +
			`query.contains("impact") || query.contains("program")`,
		AgentName: "policy_analyst",
		Action:    "analyze_policy",
	},
	{
		Name: "regional_analysis",
		Condition: `query.contains("região") || query.contains("regiao") || query.contains("estado") || ` +
			`query.contains("município") || query.contains("municipio") || query.contains("geográfico") || ` +
			`query.contains("geografico") || query.contains("territorial") || query.contains("território") || ` +
			`query.contains("territorio") || query.contains("norte") || query.contains("nordeste") || ` +
			`query.contains("sul") || query.contains("sudeste") || query.contains("centro-oeste") || ` +
			`query.contains("region") || query.contains("state") || query.contains("municipality") || query.contains("geographic")`,
		AgentName: "regional_analyst",
		Action:    "analyze_region",
	},
	{
		Name: "reporting",
		Condition: `query.contains("relatório") || query.contains("relatorio") || query.contains("resumo") || ` +
			`query.contains("análise") || query.contains("analise") || query.contains("explicação") || ` +
			`query.contains("explicacao") || query.contains("documento") || ` +
			`query.contains("report") || query.contains("summary") || query.contains("document")`,
		AgentName: "reporter",
		Action:    "generate_report",
	},
}

// RuleEngine evaluates a Rule table against a query, compiling each CEL
// program once at construction.
type RuleEngine struct {
	env      *cel.Env
	programs []compiledRule
}

type compiledRule struct {
	rule    Rule
	program cel.Program
}

// NewRuleEngine compiles rules against a CEL environment exposing a
// single string variable, `query`.
func NewRuleEngine(rules []Rule) (*RuleEngine, error) {
	env, err := cel.NewEnv(cel.Variable("query", cel.StringType))
	if err != nil {
		return nil, fmt.Errorf("building CEL environment: %w", err)
	}

	engine := &RuleEngine{env: env}
	for _, r := range rules {
		ast, issues := env.Compile(r.Condition)
		if issues != nil && issues.Err() != nil {
			return nil, fmt.Errorf("compiling rule %q: %w", r.Name, issues.Err())
		}
		program, err := env.Program(ast)
		if err != nil {
			return nil, fmt.Errorf("building program for rule %q: %w", r.Name, err)
		}
		engine.programs = append(engine.programs, compiledRule{rule: r, program: program})
	}
	return engine, nil
}

// Matches evaluates every rule against the lowercased query text and
// returns those whose condition is true, in table order.
func (e *RuleEngine) Matches(query string) ([]Rule, error) {
	lowered := strings.ToLower(query)
	var matched []Rule
	for _, cr := range e.programs {
		out, _, err := cr.program.Eval(map[string]interface{}{"query": lowered})
		if err != nil {
			return nil, fmt.Errorf("evaluating rule %q: %w", cr.rule.Name, err)
		}
		if boolVal, ok := out.Value().(bool); ok && boolVal {
			matched = append(matched, cr.rule)
		}
	}
	return matched, nil
}
