package genai

import (
	"fmt"
	"strings"

	"github.com/apex-eduai/examvault/internal/quiz"
)

type template struct {
	prompt  string // "%s" is replaced by the topic
	options []string
	answer  string
}

// fallbackBank is a topic-parameterised question pool used whenever the
// external generator is unreachable or returns an unusable payload.
var fallbackBank = []template{
	{
		prompt:  "What is the primary function of %s?",
		options: []string{"Data storage and retrieval", "Process execution and management", "Network resource allocation", "User interface rendering"},
		answer:  "Process execution and management",
	},
	{
		prompt:  "Which of the following best defines %s?",
		options: []string{"A high-level software abstraction", "A low-level hardware component", "A physical user-interface element", "A network routing protocol"},
		answer:  "A high-level software abstraction",
	},
	{
		prompt:  "What is a fundamental characteristic of %s?",
		options: []string{"It exhibits static, unchanging behaviour", "It demonstrates dynamic adaptability", "It maintains a completely fixed structure", "It has inherently limited scalability"},
		answer:  "It demonstrates dynamic adaptability",
	},
	{
		prompt:  "The concept of %s was developed primarily to address problems related to:",
		options: []string{"Hardware component failures", "Increasing software complexity", "Raw data redundancy", "Physical network latency"},
		answer:  "Increasing software complexity",
	},
	{
		prompt:  "What does %s primarily seek to optimise?",
		options: []string{"Physical disk I/O throughput", "Logical process efficiency and correctness", "Screen rendering pipeline speed", "Physical memory chip access"},
		answer:  "Logical process efficiency and correctness",
	},
	{
		prompt:  "Which of these is NOT a property of %s?",
		options: []string{"Modularity", "Scalability", "Physical hardware dependency", "Abstraction"},
		answer:  "Physical hardware dependency",
	},
	{
		prompt:  "A typical practical use case for %s includes:",
		options: []string{"Visual rendering pipelines", "Large-scale data analysis", "Physical hardware design", "Low-level protocol management"},
		answer:  "Large-scale data analysis",
	},
	{
		prompt:  "What is the most significant advantage of using %s in enterprise systems?",
		options: []string{"Drastically increased memory consumption", "Significantly improved maintainability", "Consistently slower execution speed", "Inherently weaker security posture"},
		answer:  "Significantly improved maintainability",
	},
	{
		prompt:  "Which limitation is most commonly associated with %s?",
		options: []string{"High initial computational overhead", "Poor or missing documentation", "Complete lack of industry adoption", "Trivially simple implementation"},
		answer:  "High initial computational overhead",
	},
	{
		prompt:  "%s is architecturally built upon which fundamental computer science concept?",
		options: []string{"Recursive programming", "Iterative execution", "Abstraction and encapsulation", "Runtime polymorphism"},
		answer:  "Abstraction and encapsulation",
	},
	{
		prompt:  "The concept of modularity within %s architecture specifically means:",
		options: []string{"Source code cannot be effectively reused", "All components are tightly and rigidly coupled", "Components can be independently developed and maintained", "The entire system forms one indivisible monolith"},
		answer:  "Components can be independently developed and maintained",
	},
	{
		prompt:  "When comprehensively testing %s, which testing approach provides the broadest coverage?",
		options: []string{"Unit testing in complete isolation", "Integration testing of combined components", "Full end-to-end system testing", "A combination of all testing approaches"},
		answer:  "A combination of all testing approaches",
	},
	{
		prompt:  "When a production %s system experiences an unexpected failure, the first diagnostic step should be to:",
		options: []string{"Immediately restart all physical hardware", "Carefully examine the system and application logs", "Perform a complete software reinstallation", "Escalate immediately to the vendor without investigation"},
		answer:  "Carefully examine the system and application logs",
	},
	{
		prompt:  "When evaluating %s for adoption in a new software project, the development team should carefully consider:",
		options: []string{"Only the physical office location of the team", "Team expertise, project requirements, and scalability needs", "Only available font and colour choices for the UI", "Only the team's preferred colour palette"},
		answer:  "Team expertise, project requirements, and scalability needs",
	},
	{
		prompt:  "The scalability of a %s system is most accurately measured by:",
		options: []string{"The total number of concurrent users", "System throughput and end-to-end latency", "Percentage of test code coverage", "The size of the development team"},
		answer:  "System throughput and end-to-end latency",
	},
}

// FallbackBank builds a bank of exactly p.NumQuestions questions from the
// template pool, cycling when the pool is shorter than the request.
func FallbackBank(p Params) Bank {
	topic := strings.TrimSpace(strings.ReplaceAll(p.Topic, `"`, ""))
	if topic == "" {
		topic = "General Knowledge"
	}
	qs := make(quiz.QuestionSet, 0, p.NumQuestions)
	for i := 0; i < p.NumQuestions; i++ {
		tpl := fallbackBank[i%len(fallbackBank)]
		qs = append(qs, quiz.Question{
			Prompt:  fill(tpl.prompt, topic),
			Options: append([]string(nil), tpl.options...),
			Answer:  tpl.answer,
		})
	}
	numberQuestions(qs)
	return Bank{Title: bankTitle(topic, p.NumQuestions), Questions: qs}
}

func fill(tpl, topic string) string {
	if strings.Contains(tpl, "%s") {
		return fmt.Sprintf(tpl, topic)
	}
	return tpl
}
