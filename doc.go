// Stockresearch - a conditional market research assistant in Go
//
// Stockresearch answers natural-language stock market questions. Every question is
// classified first: questions that need live data are answered from fresh web search
// results and encyclopedic background, while greetings and follow-ups about the
// conversation are answered from the session history alone. Answers are generated by a
// langchaingo chat model and can be delivered complete or as a stream of events.
//
// # Quick Start
//
//	go install github.com/smallnest/stockresearch/cmd/stockresearch@latest
//	export OPENAI_API_KEY=... TAVILY_API_KEY=...
//	stockresearch ask "What is the current price of AAPL?"
//	stockresearch chat
//
// # Packages
//
//   - graph: typed state graph with conditional edges, field-merging schemas and node listeners
//   - research: classifier, synthesizer and the Assistant that runs one turn through the graph
//   - tool: Tavily, Brave and Wikipedia retrieval sources
//   - store: session history with memory, redis, sqlite and postgres backends
//   - config: viper configuration with STOCKRESEARCH_ environment overrides
//   - llms/provider: OpenAI, Google AI and Ollama chat models from configuration
//   - log: leveled logging backed by golog
//
// # Library Use
//
//	model, _ := openai.New()
//	web, _ := tool.NewTavilySearch("")
//	sessions := memory.NewMemorySessionStore(memory.MemoryOptions{})
//
//	assistant, err := research.NewAssistant(model, web, tool.NewWikipediaSearch(), sessions, research.DefaultConfig())
//	if err != nil {
//		return err
//	}
//
//	res, err := assistant.RunTurn(ctx, research.TurnRequest{
//		Question:  "Should I buy Tesla stock now?",
//		SessionID: "user-42",
//	})
//	fmt.Println(res.Answer, res.Sources)
package stockresearch
