// Package tools provides the deterministic retrieval fixtures the sub-agents
// call for domain data. Lookups are in-process and never fail: an unknown tool
// name yields a structured error record so the calling agent can fall back to
// its own knowledge.
package tools

import (
	"fmt"
	"strings"
)

// Agent names used to scope tool dispatch.
const (
	AgentInfo         = "info"
	AgentDiagnostic   = "diagnostic"
	AgentModCoach     = "modcoach"
	AgentBuildPlanner = "buildplanner"
)

// Names lists every registered tool, grouped by the agent that advertises it.
var Names = map[string][]string{
	AgentInfo:         {"lookup_glossary_term", "tech_spec_lookup", "explain_tuning_concept", "fetch_forum_threads"},
	AgentDiagnostic:   {"lookup_official_dtc", "symptom_fault_matcher", "get_known_issues"},
	AgentModCoach:     {"check_compatibility", "estimate_power_gains", "price_analysis"},
	AgentBuildPlanner: {"suggest_install_order", "estimate_mod_cost", "check_compatibility"},
}

// Invoke resolves a tool call to its fixture payload. The agent name scopes
// dispatch for tools shared across agents. Input carries call context, for
// fixtures that shape output from it (currently the modcoach compatibility
// check, which filters the proposed mod list).
func Invoke(agent, name string, input map[string]any) map[string]any {
	switch name {
	case "lookup_glossary_term":
		return glossaryTerm()
	case "tech_spec_lookup":
		return techSpec()
	case "explain_tuning_concept":
		return tuningConcept()
	case "fetch_forum_threads":
		return forumThreads()
	case "lookup_official_dtc":
		return officialDTC()
	case "symptom_fault_matcher":
		return symptomFaults()
	case "get_known_issues":
		return knownIssues()
	case "check_compatibility":
		if agent == AgentModCoach {
			return modCompatibility(input)
		}
		return partCompatibility()
	case "estimate_power_gains":
		return powerGains()
	case "price_analysis":
		return priceAnalysis()
	case "suggest_install_order":
		return installOrder()
	case "estimate_mod_cost":
		return modCost()
	default:
		return map[string]any{
			"tool_error":    fmt.Sprintf("Unknown tool: %s", name),
			"fallback_data": "Using general automotive knowledge to answer your question",
		}
	}
}

func glossaryTerm() map[string]any {
	return map[string]any{
		"term":          "horsepower",
		"definition":    "A unit of power equal to 550 foot-pounds per second, used to measure engine output",
		"context":       "In automotive terms, horsepower measures the engine's ability to do work over time",
		"related_terms": []any{"torque", "brake horsepower", "wheel horsepower"},
	}
}

func techSpec() map[string]any {
	return map[string]any{
		"specification":     "2023 Acura Integra Engine",
		"displacement":      "1.5L Turbo",
		"stock_horsepower":  "200 HP",
		"stock_torque":      "192 lb-ft",
		"compression_ratio": "10.3:1",
		"fuel_system":       "Direct Injection",
	}
}

func tuningConcept() map[string]any {
	return map[string]any{
		"concept":     "ECU Tuning",
		"explanation": "ECU tuning modifies the engine control unit's software to optimize air/fuel ratios, ignition timing, and boost pressure for better performance",
		"benefits":    []any{"Increased horsepower", "Better throttle response", "Improved fuel efficiency"},
		"risks":       []any{"Voided warranty", "Potential engine damage if done incorrectly"},
	}
}

func forumThreads() map[string]any {
	return map[string]any{
		"threads": []any{
			map[string]any{
				"title":      "Best mods for 2023 Integra",
				"author":     "IntegraOwner2023",
				"replies":    45,
				"key_points": []any{"Cold air intake first", "Exhaust system next", "ECU tune for best results"},
			},
			map[string]any{
				"title":      "Dyno results after intake + exhaust",
				"author":     "ModdedIntegra",
				"replies":    23,
				"key_points": []any{"+22 HP gain", "Better sound", "Improved throttle response"},
			},
		},
	}
}

func officialDTC() map[string]any {
	return map[string]any{
		"dtc_codes":     []any{"P0300", "P0301", "P0302"},
		"descriptions":  []any{"Random/Multiple Cylinder Misfire Detected", "Cylinder 1 Misfire Detected", "Cylinder 2 Misfire Detected"},
		"severity":      "Medium",
		"common_causes": []any{"Faulty spark plugs", "Bad ignition coils", "Vacuum leaks", "Low fuel pressure"},
	}
}

func symptomFaults() map[string]any {
	return map[string]any{
		"matched_symptoms": []any{"engine misfire", "rough idle", "power loss"},
		"likely_causes": []any{
			map[string]any{"cause": "Faulty ignition system", "confidence": 85},
			map[string]any{"cause": "Vacuum leak", "confidence": 70},
			map[string]any{"cause": "Fuel system issue", "confidence": 60},
		},
		"diagnostic_steps": []any{
			"Check spark plugs and ignition coils",
			"Inspect for vacuum leaks",
			"Test fuel pressure",
			"Scan for trouble codes",
		},
	}
}

func knownIssues() map[string]any {
	return map[string]any{
		"known_issues": []any{
			map[string]any{
				"issue":     "Ignition coil failure",
				"frequency": "Common on 2023 Integra",
				"symptoms":  []any{"Misfire", "Rough idle", "Check engine light"},
				"solution":  "Replace affected ignition coil(s)",
			},
			map[string]any{
				"issue":     "Turbo wastegate sticking",
				"frequency": "Occasional",
				"symptoms":  []any{"Power loss", "Boost issues", "Engine hesitation"},
				"solution":  "Clean or replace wastegate actuator",
			},
		},
		"tsb_references": []any{"TSB-2023-001", "TSB-2023-015"},
	}
}

// modCompatibility keeps the mods from the pending recommendation list whose
// names look like bolt-ons.
func modCompatibility(input map[string]any) map[string]any {
	var compatible []any
	if mods, ok := input["mods"].([]map[string]any); ok {
		for _, mod := range mods {
			name, _ := mod["name"].(string)
			lower := strings.ToLower(name)
			if strings.Contains(lower, "intake") || strings.Contains(lower, "exhaust") {
				compatible = append(compatible, name)
			}
		}
	}
	if compatible == nil {
		compatible = []any{}
	}
	return map[string]any{
		"compatible_mods":         compatible,
		"incompatible_mods":       []any{},
		"fitment_notes":           "All suggested mods are compatible with your Acura Integra platform",
		"installation_difficulty": "Easy to Moderate",
	}
}

func partCompatibility() map[string]any {
	return map[string]any{
		"compatible_parts": []any{
			"Injen Cold Air Intake",
			"AWE Touring Exhaust",
			"Hondata FlashPro",
			"PRL Intercooler",
			"RV6 Downpipe",
		},
		"incompatible_parts": []any{},
		"platform_notes":     "2023 Integra has excellent aftermarket support",
		"warranty_impact":    "Some mods may void powertrain warranty",
	}
}

func powerGains() map[string]any {
	return map[string]any{
		"estimated_hp_gain": "15-25 HP",
		"estimated_tq_gain": "10-15 lb-ft",
		"dyno_notes":        "Based on similar builds on 2023 Integra platform",
		"recommended_tune":  "Stage 1 ECU tune recommended for optimal gains",
	}
}

func priceAnalysis() map[string]any {
	return map[string]any{
		"total_cost": "$800-1200",
		"cost_breakdown": map[string]any{
			"intake":  "$200-300",
			"exhaust": "$400-600",
			"tune":    "$200-300",
		},
		"value_rating": "High - Good power per dollar ratio",
	}
}

func installOrder() map[string]any {
	return map[string]any{
		"optimal_order": []any{
			map[string]any{"stage": 1, "mods": []any{"Cold Air Intake", "High Flow Air Filter"}},
			map[string]any{"stage": 2, "mods": []any{"Cat-Back Exhaust System"}},
			map[string]any{"stage": 3, "mods": []any{"ECU Tune", "Downpipe"}},
			map[string]any{"stage": 4, "mods": []any{"Intercooler Upgrade", "Charge Pipes"}},
			map[string]any{"stage": 5, "mods": []any{"Turbo Upgrade", "Fuel System"}},
		},
		"reasoning":          "This order maximizes gains while maintaining reliability",
		"estimated_timeline": "3-6 months for full build",
	}
}

func modCost() map[string]any {
	return map[string]any{
		"total_build_cost": "$3,500-5,200",
		"cost_breakdown": map[string]any{
			"stage_1": "$400-600",
			"stage_2": "$800-1200",
			"stage_3": "$1200-1800",
			"stage_4": "$600-900",
			"stage_5": "$500-700",
		},
		"labor_estimate": "$800-1200",
		"dyno_tuning":    "$300-500",
	}
}
