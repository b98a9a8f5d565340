package agent

import (
	"context"
	"fmt"

	"github.com/etnz/depot"
	"github.com/etnz/depot/docs"
	"github.com/etnz/depot/renderer"
	"google.golang.org/genai"
)

const model = "gemini-2.5-pro"

func newFacilitator(experts ...*Expert) *Expert {
	return &Expert{
		Name:      "Facilitator",
		ModelName: model,
		Config: &genai.GenerateContentConfig{
			Tools: []*genai.Tool{
				{FunctionDeclarations: NewDeclaration(experts)},
			},
			SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: `
			As a facilitator you are in charge of the conversation and solving the user's request.

			Learn about the expert's skill that you can get from the Tools to ask them questions.
			They are at your service and keep context of your previous questions.

			The user is here to get information about the stocks and funds of their portfolio:
			their value, performance and fees.

			Devise a plan of questions to ask to each expert and come up with the best response to the user's request.

			The user will assume that you know about their symbols, ask the Analyst first to understand what they are.
		`}}},
		},
		Library: NewLibrary(experts),
	}
}

// NewTrader returns an expert grounded on Google Search.
func NewTrader() *Expert {
	return &Expert{
		Name: "Trader",
		Description: `This is an expert trader,
		aware of the financial products and institutions, and of the latest news about funds or companies.
		Ask the Trader whenever you need recent or grounding information.`,
		ModelName: model,
		Config: &genai.GenerateContentConfig{
			Tools: []*genai.Tool{
				{GoogleSearch: &genai.GoogleSearch{}},
			},
			SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: `
			You are an expert in trading, you can search and find about anything related to
			financial institutions, companies, markets, funds etc. You leverage Google Search to
			ground your assertions in a solid truth.`}}},
		},
	}
}

// NewAnalyst returns an expert that can read p.
func NewAnalyst(p *depot.Portfolio) *Expert {
	lib := Functions(p)
	return &Expert{
		Name: "Analyst",
		Description: `This is the Analyst, in charge of the user's portfolio.
		It knows the trades, positions, market values, performance and fees of every stock held.`,
		ModelName: model,
		Config: &genai.GenerateContentConfig{
			Tools: []*genai.Tool{
				{FunctionDeclarations: NewDeclaration(lib)},
			},
			SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: `
				You are an analyst in charge of the user's portfolio.
				Use the available tools to get information about the portfolio: its overview, a position
				and its history, the list of trades.
				The columns of the overview are documented below.

				` + must(docs.GetTopic("overview"))}}},
		},
		Library: NewLibrary(lib),
	}
}

// Func implements a simple Function.
type Func struct {
	Decl *genai.FunctionDeclaration
	Func func(ctx context.Context, args map[string]any) (string, error)
}

func (f *Func) Declaration() *genai.FunctionDeclaration { return f.Decl }

func (f *Func) Call(ctx context.Context, id string, args map[string]any) *genai.FunctionResponse {
	out, err := f.Func(ctx, args)
	if err != nil {
		return failure(id, f.Decl.Name, err)
	}
	return success(id, f.Decl.Name, out)
}

func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}

var markdownResponse = &genai.Schema{
	Type:        genai.TypeString,
	Description: "A markdown document.",
}

// Functions returns the functions reading p.
func Functions(p *depot.Portfolio) []*Func {
	return []*Func{
		{
			Decl: &genai.FunctionDeclaration{
				Name:        "Overview",
				Description: "Overview values every position of the portfolio: amount, cost basis, market value, performance, fees.",
				Parameters: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"date": {
							Type:        genai.TypeString,
							Description: "The date until which running costs are accrued, YYYY-MM-DD. Today is the default.",
						},
					},
				},
				Response: markdownResponse,
			},
			Func: func(ctx context.Context, args map[string]any) (string, error) {
				on, err := parseDate(args)
				if err != nil {
					return "", err
				}
				o, err := p.OverviewAt(ctx, on)
				if err != nil {
					return "", err
				}
				return renderer.OverviewMarkdown(o), nil
			},
		},
		{
			Decl: &genai.FunctionDeclaration{
				Name:        "Position",
				Description: "Position details one symbol of the portfolio, and its history trade day by trade day.",
				Parameters: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"symbol": {Type: genai.TypeString, Description: "The symbol, as listed in the overview."},
					},
					Required: []string{"symbol"},
				},
				Response: markdownResponse,
			},
			Func: func(ctx context.Context, args map[string]any) (string, error) {
				symbol, ok := args["symbol"].(string)
				if !ok {
					return "", fmt.Errorf("argument 'symbol' is not a string as expected but %T", args["symbol"])
				}
				pos, err := p.Position(ctx, symbol)
				if err != nil {
					return "", err
				}
				o, err := p.Overview(ctx)
				if err != nil {
					return "", err
				}
				for _, row := range o.Rows {
					if row.Symbol == symbol {
						return renderer.PositionMarkdown(row, pos.History()), nil
					}
				}
				return "", fmt.Errorf("%w: no position %q", depot.ErrInvalidArgument, symbol)
			},
		},
		{
			Decl: &genai.FunctionDeclaration{
				Name:        "Trades",
				Description: "Trades lists all trades of the portfolio.",
				Parameters:  &genai.Schema{Type: genai.TypeObject},
				Response:    markdownResponse,
			},
			Func: func(ctx context.Context, args map[string]any) (string, error) {
				return renderer.TradesMarkdown("Trades", p.Trades(), p.Currency()), nil
			},
		},
	}
}

func parseDate(args map[string]any) (depot.Date, error) {
	idate, ok := args["date"]
	if !ok {
		return depot.Today(), nil
	}
	sdate, ok := idate.(string)
	if !ok {
		return depot.Date{}, fmt.Errorf("argument 'date' is not a string as expected but %T", idate)
	}
	return depot.ParseDate(sdate)
}
