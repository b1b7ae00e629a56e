package realtime

// ToolSchema is the function-tool declaration shape the realtime service
// expects in its session configuration.
type ToolSchema struct {
	Type        string     `json:"type"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Parameters  SchemaNode `json:"parameters"`
}

// SchemaNode is a minimal JSON-schema node, enough to express the tool
// parameter shapes the concierge uses.
type SchemaNode struct {
	Type        string                `json:"type,omitempty"`
	Description string                `json:"description,omitempty"`
	Enum        []string              `json:"enum,omitempty"`
	Properties  map[string]SchemaNode `json:"properties,omitempty"`
	Items       *SchemaNode           `json:"items,omitempty"`
	Required    []string              `json:"required,omitempty"`
}

// voiceInstructions is the canonical persona and voice policy applied to
// every realtime session server-side.
const voiceInstructions = `You are the luxury packaging concierge at Maison Verre, a premium glass packaging supplier for beauty, fragrance, and wellness brands. You are warm, knowledgeable, and efficient.

TOOLS: You have searchCatalog, getFamilyOverview, getBottleComponents, checkCompatibility, getCatalogStats, showProducts, compareProducts, buildKit, proposeCartAdd, navigateToPage, and prefillForm. ALWAYS use tools, never guess product names, specs, prices, or availability.

VOICE RULES (CRITICAL, you are speaking aloud):
- Maximum 2 sentences per reply. Total response under 40 words.
- No lists, bullet points, or markdown. No SKU codes, say product names naturally.
- Say thread sizes as words: "eighteen four-fifteen" not "18-415".
- End every reply with ONE short follow-up question to keep the conversation going.

APPLICATOR LANGUAGE: roll-on/roller means searchCatalog applicatorFilter "Metal Roller,Plastic Roller"; spray/mist/atomizer means "Fine Mist Sprayer,Atomizer,Antique Bulb Sprayer"; splash-on/cologne/reducer means "Reducer"; dropper/serum means "Dropper"; lotion pump means "Lotion Pump"; glass wand/glass rod means "Glass Rod,Applicator Cap"; glass applicator/glass stopper means "Glass Stopper"; cap/closure means "Cap/Closure".

BEHAVIOUR: For family questions call getFamilyOverview first. Use showProducts/compareProducts so customers can see options visually. For cart adds always use proposeCartAdd, never add without customer confirmation. Language: English unless the customer speaks another language first.`

// ToolSchemas returns the fixed tool catalog declared on every session. The
// set is server-defined; clients cannot extend it.
func ToolSchemas() []ToolSchema {
	return []ToolSchema{
		{
			Type:        "function",
			Name:        "searchCatalog",
			Description: "Search catalog by keyword. Always set applicatorFilter for roll-on/spray/dropper/pump queries.",
			Parameters: SchemaNode{
				Type: "object",
				Properties: map[string]SchemaNode{
					"searchTerm":       {Type: "string", Description: "Size/color/family query, e.g. '9ml cobalt blue', '30ml amber'"},
					"applicatorFilter": {Type: "string", Description: "Roll-on:'Metal Roller,Plastic Roller'; Spray:'Fine Mist Sprayer,Atomizer,Antique Bulb Sprayer'; Dropper:'Dropper'; Pump:'Lotion Pump'; Splash-on:'Reducer'; Glass wand:'Glass Rod,Applicator Cap'; Glass stopper:'Glass Stopper'; Cap:'Cap/Closure'"},
					"categoryLimit":    {Type: "string", Description: "'Glass Bottle'|'Component'|'Aluminum Bottle'|'Specialty'"},
					"familyLimit":      {Type: "string", Description: "'Cylinder'|'Elegant'|'Boston Round'|'Diva'|'Empire'|etc"},
				},
				Required: []string{"searchTerm"},
			},
		},
		{
			Type:        "function",
			Name:        "getFamilyOverview",
			Description: "Get all sizes, colors, threads, applicator types, and price ranges for a bottle family.",
			Parameters: SchemaNode{
				Type: "object",
				Properties: map[string]SchemaNode{
					"family": {Type: "string", Description: "'Cylinder'|'Elegant'|'Boston Round'|'Circle'|'Diva'|'Empire'|'Slim'|'Diamond'|'Sleek'|'Round'|'Royal'|'Square'|'Vial'|'Grace'|'Rectangle'|'Flair'"},
				},
				Required: []string{"family"},
			},
		},
		{
			Type:        "function",
			Name:        "checkCompatibility",
			Description: "List closures/applicators compatible with a thread size.",
			Parameters: SchemaNode{
				Type: "object",
				Properties: map[string]SchemaNode{
					"threadSize": {Type: "string", Description: "e.g. '18-415', '20-400', '13-425'"},
				},
				Required: []string{"threadSize"},
			},
		},
		{
			Type:        "function",
			Name:        "getBottleComponents",
			Description: "Get all compatible components for a specific bottle SKU.",
			Parameters: SchemaNode{
				Type: "object",
				Properties: map[string]SchemaNode{
					"bottleSku": {Type: "string", Description: "Bottle SKU from searchCatalog"},
				},
				Required: []string{"bottleSku"},
			},
		},
		{
			Type:        "function",
			Name:        "getCatalogStats",
			Description: "Get total product counts by family and category.",
			Parameters: SchemaNode{
				Type:       "object",
				Properties: map[string]SchemaNode{},
				Required:   []string{},
			},
		},
		{
			Type:        "function",
			Name:        "showProducts",
			Description: "Display product cards visually when customer wants to see options.",
			Parameters: SchemaNode{
				Type: "object",
				Properties: map[string]SchemaNode{
					"query":  {Type: "string", Description: "Search query"},
					"family": {Type: "string", Description: "Optional family filter"},
				},
				Required: []string{"query"},
			},
		},
		{
			Type:        "function",
			Name:        "compareProducts",
			Description: "Show side-by-side product comparison.",
			Parameters: SchemaNode{
				Type: "object",
				Properties: map[string]SchemaNode{
					"query":  {Type: "string", Description: "Search query"},
					"family": {Type: "string", Description: "Optional family filter"},
				},
				Required: []string{"query"},
			},
		},
		{
			Type:        "function",
			Name:        "buildKit",
			Description: "Assemble a matched bottle-plus-closure kit around a base bottle and show it as a kit card.",
			Parameters: SchemaNode{
				Type: "object",
				Properties: map[string]SchemaNode{
					"bottleSku": {Type: "string", Description: "Base bottle SKU"},
					"theme":     {Type: "string", Description: "Optional kit theme, e.g. 'travel minis', 'serum line'"},
				},
				Required: []string{"bottleSku"},
			},
		},
		{
			Type:        "function",
			Name:        "proposeCartAdd",
			Description: "Propose cart additions. Requires customer confirmation via card.",
			Parameters: SchemaNode{
				Type: "object",
				Properties: map[string]SchemaNode{
					"products": {
						Type: "array",
						Items: &SchemaNode{
							Type: "object",
							Properties: map[string]SchemaNode{
								"itemName":    {Type: "string"},
								"sku":         {Type: "string"},
								"quantity":    {Type: "number"},
								"webPrice1pc": {Type: "number"},
							},
							Required: []string{"itemName", "sku"},
						},
					},
				},
				Required: []string{"products"},
			},
		},
		{
			Type:        "function",
			Name:        "navigateToPage",
			Description: "Show a link card or navigate customer to a page. Set autoNavigate=true only when customer explicitly asks to go there.",
			Parameters: SchemaNode{
				Type: "object",
				Properties: map[string]SchemaNode{
					"path":         {Type: "string", Description: "URL path, e.g. '/catalog', '/contact', '/catalog?family=Elegant'"},
					"title":        {Type: "string", Description: "Card title"},
					"description":  {Type: "string", Description: "What they'll find on the page"},
					"autoNavigate": {Type: "boolean", Description: "True to navigate directly"},
				},
				Required: []string{"path", "title"},
			},
		},
		{
			Type:        "function",
			Name:        "prefillForm",
			Description: "Pre-fill a form after collecting info conversationally. Fields: name, email, company, phone, message.",
			Parameters: SchemaNode{
				Type: "object",
				Properties: map[string]SchemaNode{
					"formType": {Type: "string", Enum: []string{"sample", "quote", "contact", "newsletter"}},
					"fields":   {Type: "object", Description: "Field name to value pairs"},
				},
				Required: []string{"formType", "fields"},
			},
		},
	}
}
