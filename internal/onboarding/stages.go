package onboarding

import "fmt"

// Stages lists the onboarding phases in order.
var Stages = []Stage{
	StageBasicData,
	StageDocumentation,
	StageIdentityValidation,
	StageFinancialInformation,
	StageFinalApproval,
	StageProductConfiguration,
}

// stageSignals are the facts the resolver looks at. Nothing else about the
// client influences the stage.
type stageSignals struct {
	hasName, hasEmail, hasPhone bool

	documents    int
	accepted     int
	applications int
	approved     int
}

func signalsFor(in Input) stageSignals {
	s := stageSignals{
		hasName:      in.Client.HasName(),
		hasEmail:     present(in.Client.Email),
		hasPhone:     present(in.Client.Phone),
		documents:    len(in.Documents),
		applications: len(in.Applications),
	}
	for _, d := range in.Documents {
		if d.Status == DocumentAccepted {
			s.accepted++
		}
	}
	for _, a := range in.Applications {
		if a.Status == ApplicationApproved {
			s.approved++
		}
	}
	return s
}

// basicComplete is also the may-advance flag: necessary, not sufficient, for
// leaving BasicData.
func (s stageSignals) basicComplete() bool {
	return s.hasName && s.hasEmail && s.hasPhone
}

// stageRules are evaluated top-down; the first match is the current stage.
// IdentityValidation has no rule of its own: a submitted document satisfies
// it, so it is never current while document acceptance gates Documentation.
// ProductConfiguration is the fallback once an application is approved and is
// never marked complete here.
var stageRules = []struct {
	stage Stage
	when  func(stageSignals) bool
}{
	{StageBasicData, func(s stageSignals) bool { return !s.basicComplete() }},
	{StageDocumentation, func(s stageSignals) bool { return s.accepted == 0 }},
	{StageFinancialInformation, func(s stageSignals) bool { return s.applications == 0 }},
	{StageFinalApproval, func(s stageSignals) bool { return s.approved == 0 }},
	{StageProductConfiguration, func(stageSignals) bool { return true }},
}

type stageDef struct {
	required  bool
	actions   []string
	completed func(stageSignals) bool
	details   func(stageSignals) []string
}

var stageDefs = map[Stage]stageDef{
	StageBasicData: {
		required:  true,
		actions:   []string{"edit_client"},
		completed: stageSignals.basicComplete,
		details: func(s stageSignals) []string {
			var missing []string
			if !s.hasName {
				missing = append(missing, "Missing name")
			}
			if !s.hasEmail {
				missing = append(missing, "Missing email")
			}
			if !s.hasPhone {
				missing = append(missing, "Missing phone")
			}
			if len(missing) == 0 {
				return []string{"Name, email and phone captured"}
			}
			return missing
		},
	},
	StageDocumentation: {
		required:  true,
		actions:   []string{"upload_document", "review_documents"},
		completed: func(s stageSignals) bool { return s.accepted > 0 },
		details: func(s stageSignals) []string {
			if s.documents == 0 {
				return []string{"No documents submitted"}
			}
			return []string{fmt.Sprintf("%d document(s) submitted, %d accepted", s.documents, s.accepted)}
		},
	},
	StageIdentityValidation: {
		required:  true,
		actions:   []string{"upload_identity_document"},
		completed: func(s stageSignals) bool { return s.documents > 0 },
		details: func(s stageSignals) []string {
			if s.documents == 0 {
				return []string{"Waiting for identity documents"}
			}
			return []string{"Identity validated through submitted documents"}
		},
	},
	StageFinancialInformation: {
		required:  true,
		actions:   []string{"open_application"},
		completed: func(s stageSignals) bool { return s.applications > 0 },
		details: func(s stageSignals) []string {
			if s.applications == 0 {
				return []string{"No product application opened"}
			}
			return []string{fmt.Sprintf("%d application(s) opened", s.applications)}
		},
	},
	StageFinalApproval: {
		required:  true,
		actions:   []string{"review_application", "approve_application"},
		completed: func(s stageSignals) bool { return s.approved > 0 },
		details: func(s stageSignals) []string {
			switch {
			case s.approved > 0:
				return []string{fmt.Sprintf("%d application(s) approved", s.approved)}
			case s.applications > 0:
				return []string{"Waiting for application approval"}
			}
			return []string{"Requires an open application"}
		},
	},
	StageProductConfiguration: {
		actions:   []string{"configure_product"},
		completed: func(stageSignals) bool { return false },
		details: func(s stageSignals) []string {
			if s.approved > 0 {
				return []string{"Configure the approved product"}
			}
			return []string{"Available after final approval"}
		},
	},
}

// StageResolution is the resolver output.
type StageResolution struct {
	Current    Stage
	CanAdvance bool
	Stages     []StageStatus
}

// ResolveStage maps the client snapshot to its current stage and the status of
// every stage. Actions are offered only for unfinished stages at or before the
// current one.
func ResolveStage(in Input) StageResolution {
	s := signalsFor(in)

	current := StageProductConfiguration
	for _, rule := range stageRules {
		if rule.when(s) {
			current = rule.stage
			break
		}
	}

	currentOrder := stageOrder(current)
	statuses := make([]StageStatus, 0, len(Stages))
	for i, st := range Stages {
		def := stageDefs[st]
		completed := def.completed(s)
		actions := []string{}
		if !completed && i <= currentOrder {
			actions = append(actions, def.actions...)
		}
		statuses = append(statuses, StageStatus{
			Stage:     st,
			Order:     i + 1,
			Required:  def.required,
			Completed: completed,
			Current:   st == current,
			Details:   def.details(s),
			Actions:   actions,
		})
	}

	return StageResolution{
		Current:    current,
		CanAdvance: s.basicComplete(),
		Stages:     statuses,
	}
}

func stageOrder(st Stage) int {
	for i, s := range Stages {
		if s == st {
			return i
		}
	}
	return -1
}
