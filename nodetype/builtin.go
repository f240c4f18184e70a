package nodetype

import (
	"github.com/c360/flowbuilder/port"
)

// Built-in node type ids
const (
	TypeAPICall         = "api-call"
	TypeDataTransform   = "data-transform"
	TypeDatabase        = "database"
	TypeWebhook         = "webhook"
	TypeEmail           = "email"
	TypeCondition       = "condition"
	TypeTimer           = "timer"
	TypeFileProcessor   = "file-processor"
	TypeHTTPTrigger     = "http-trigger"
	TypeScheduleTrigger = "schedule-trigger"
	TypeWebhookTrigger  = "webhook-trigger"
)

// APICallBasic is the basic section of api-call
type APICallBasic struct {
	CommonBasic
	Endpoint   string `json:"endpoint" schema:"kind:string,label:API Endpoint,required,message:API endpoint is required" validate:"url"`
	Method     string `json:"method" schema:"kind:enum,label:HTTP Method,enum:GET|POST|PUT|PATCH|DELETE,required,message:HTTP method is required"`
	Timeout    int    `json:"timeout" schema:"kind:integer,label:Timeout (seconds),min:1,max:300"`
	RetryCount int    `json:"retryCount" schema:"kind:integer,label:Retry Count,min:0,max:10"`
}

// DataTransformBasic is the basic section of data-transform
type DataTransformBasic struct {
	CommonBasic
	InputFormat     string `json:"inputFormat" schema:"kind:enum,label:Input Format,enum:json|xml|csv|text,required"`
	OutputFormat    string `json:"outputFormat" schema:"kind:enum,label:Output Format,enum:json|xml|csv|text,required"`
	TransformScript string `json:"transformScript" schema:"kind:string,label:Transform Script,required,message:Transform script is required"`
}

// DatabaseBasic is the basic section of database
type DatabaseBasic struct {
	CommonBasic
	ConnectionString string `json:"connectionString" schema:"kind:string,label:Connection String,required"`
	Query            string `json:"query" schema:"kind:string,label:SQL Query,required"`
}

// WebhookBasic is the basic section of webhook
type WebhookBasic struct {
	CommonBasic
	WebhookURL string `json:"webhookUrl" schema:"kind:string,label:Webhook URL,required" validate:"url"`
	SecretKey  string `json:"secretKey" schema:"kind:string,label:Secret Key"`
}

// EmailBasic is the basic section of email
type EmailBasic struct {
	CommonBasic
	To       string `json:"to" schema:"kind:string,label:Recipient,required" validate:"email"`
	Subject  string `json:"subject" schema:"kind:string,label:Subject,required,max:200"`
	Template string `json:"template" schema:"kind:string,label:Template"`
	Priority string `json:"priority" schema:"kind:enum,label:Priority,enum:low|normal|high"`
}

// ConditionBasic is the basic section of condition
type ConditionBasic struct {
	CommonBasic
	ConditionType string `json:"conditionType" schema:"kind:enum,label:Condition Type,enum:javascript|expression"`
	Condition     string `json:"condition" schema:"kind:string,label:Condition,required"`
	TruthyAction  string `json:"truthyAction" schema:"kind:enum,label:When True,enum:continue|skip|stop"`
	FalsyAction   string `json:"falsyAction" schema:"kind:enum,label:When False,enum:continue|skip|stop"`
}

// TimerBasic is the basic section of timer
type TimerBasic struct {
	CommonBasic
	DelayType  string  `json:"delayType" schema:"kind:enum,label:Delay Type,enum:fixed|random"`
	DelayValue float64 `json:"delayValue" schema:"kind:number,label:Delay,required,min:0"`
	DelayUnit  string  `json:"delayUnit" schema:"kind:enum,label:Unit,enum:milliseconds|seconds|minutes|hours"`
}

// FileProcessorBasic is the basic section of file-processor
type FileProcessorBasic struct {
	CommonBasic
	Operation string `json:"operation" schema:"kind:enum,label:Operation,enum:read|write|append|delete,required"`
	FilePath  string `json:"filePath" schema:"kind:string,label:File Path,required"`
	Encoding  string `json:"encoding" schema:"kind:string,label:Encoding"`
	Format    string `json:"format" schema:"kind:enum,label:Format,enum:text|json|csv|binary"`
}

// HTTPTriggerBasic is the basic section of http-trigger
type HTTPTriggerBasic struct {
	CommonBasic
	Method string `json:"method" schema:"kind:enum,label:HTTP Method,enum:GET|POST|PUT|PATCH|DELETE,required"`
	Path   string `json:"path" schema:"kind:string,label:Path,required" validate:"http_path"`
}

// ScheduleTriggerBasic is the basic section of schedule-trigger
type ScheduleTriggerBasic struct {
	CommonBasic
	Interval string `json:"interval" schema:"kind:string,label:Interval,required" validate:"interval"`
	Timezone string `json:"timezone" schema:"kind:string,label:Timezone" validate:"timezone"`
}

// WebhookTriggerBasic is the basic section of webhook-trigger
type WebhookTriggerBasic struct {
	CommonBasic
	Path      string `json:"path" schema:"kind:string,label:Path,required" validate:"http_path"`
	Method    string `json:"method" schema:"kind:enum,label:HTTP Method,enum:GET|POST|PUT,required"`
	SecretKey string `json:"secretKey" schema:"kind:string,label:Secret Key"`
}

func common(label string) CommonBasic {
	return CommonBasic{Name: label, Enabled: true}
}

var (
	singleInput  = []port.Spec{{ID: "input", Label: "Data", DataType: port.Any, Required: true}}
	singleOutput = []port.Spec{{ID: "output", Label: "Result", DataType: port.Any}}
)

type builtinEntry struct {
	def      Definition
	sections Sections
}

func builtinEntries() []builtinEntry {
	return []builtinEntry{
		{
			def: Definition{
				ID: TypeAPICall, Label: "API Call", Category: "Integration",
				Description: "Make HTTP requests to external APIs", Icon: "Globe", Color: "bg-blue-500",
				Inputs: []port.Spec{
					{ID: "url", Label: "URL", DataType: port.String, Required: true},
					{ID: "headers", Label: "Headers", DataType: port.Object},
					{ID: "body", Label: "Request Body", DataType: port.Object},
					{ID: "auth", Label: "Authentication", DataType: port.Object},
				},
				Outputs: []port.Spec{
					{ID: "response", Label: "Response", DataType: port.Object},
					{ID: "status_code", Label: "Status Code", DataType: port.Number},
					{ID: "headers", Label: "Response Headers", DataType: port.Object},
					{ID: "execution_time", Label: "Execution Time", DataType: port.Number},
				},
			},
			sections: standardSections(APICallBasic{CommonBasic: common("API Call"), Method: "GET", Timeout: 30, RetryCount: 3}),
		},
		{
			def: Definition{
				ID: TypeDataTransform, Label: "Data Transform", Category: "Processing",
				Description: "Transform and manipulate data using scripts", Icon: "RefreshCw", Color: "bg-green-500",
				Inputs: []port.Spec{
					{ID: "input_data", Label: "Input Data", DataType: port.Any, Required: true},
					{ID: "transform_rules", Label: "Transform Rules", DataType: port.Object},
				},
				Outputs: []port.Spec{
					{ID: "transformed_data", Label: "Transformed Data", DataType: port.Any},
					{ID: "transform_log", Label: "Transform Log", DataType: port.Array},
				},
			},
			sections: standardSections(DataTransformBasic{
				CommonBasic: common("Data Transform"), InputFormat: "json", OutputFormat: "json",
				TransformScript: "// Transform the input data\nreturn data;",
			}),
		},
		{
			def: Definition{
				ID: TypeDatabase, Label: "Database Query", Category: "Data",
				Description: "Execute queries against databases", Icon: "Database", Color: "bg-purple-500",
				Inputs: []port.Spec{
					{ID: "query", Label: "Query", DataType: port.String, Required: true},
					{ID: "parameters", Label: "Parameters", DataType: port.Object},
				},
				Outputs: []port.Spec{
					{ID: "result_set", Label: "Result Set", DataType: port.Array},
					{ID: "row_count", Label: "Row Count", DataType: port.Number},
					{ID: "execution_plan", Label: "Execution Plan", DataType: port.Object},
				},
			},
			sections: standardSections(DatabaseBasic{
				CommonBasic: common("Database Query"),
				Query:       "SELECT * FROM table_name WHERE condition = ?",
			}),
		},
		{
			def: Definition{
				ID: TypeWebhook, Label: "Webhook", Category: "Integration",
				Description: "Send data to external webhook endpoints", Icon: "Send", Color: "bg-orange-500",
				Inputs: singleInput, Outputs: singleOutput,
			},
			sections: standardSections(WebhookBasic{CommonBasic: common("Webhook")}),
		},
		{
			def: Definition{
				ID: TypeEmail, Label: "Email Notification", Category: "Notification",
				Description: "Send email notifications", Icon: "Mail", Color: "bg-red-500",
				Inputs: singleInput, Outputs: singleOutput,
			},
			sections: standardSections(EmailBasic{CommonBasic: common("Email Notification"), Template: "default", Priority: "normal"}),
		},
		{
			def: Definition{
				ID: TypeCondition, Label: "Conditional Logic", Category: "Logic",
				Description: "Branch workflow based on conditions", Icon: "GitBranch", Color: "bg-yellow-500",
				Inputs: singleInput, Outputs: singleOutput,
			},
			sections: standardSections(ConditionBasic{
				CommonBasic: common("Conditional Logic"), ConditionType: "javascript",
				Condition: "return data.value > 0;", TruthyAction: "continue", FalsyAction: "skip",
			}),
		},
		{
			def: Definition{
				ID: TypeTimer, Label: "Timer/Delay", Category: "Control",
				Description: "Add delays or schedule executions", Icon: "Clock", Color: "bg-indigo-500",
				Inputs: singleInput, Outputs: singleOutput,
			},
			sections: standardSections(TimerBasic{CommonBasic: common("Timer/Delay"), DelayType: "fixed", DelayValue: 5, DelayUnit: "seconds"}),
		},
		{
			def: Definition{
				ID: TypeFileProcessor, Label: "File Processor", Category: "Processing",
				Description: "Process and manipulate files", Icon: "FileText", Color: "bg-teal-500",
				Inputs: singleInput, Outputs: singleOutput,
			},
			sections: standardSections(FileProcessorBasic{CommonBasic: common("File Processor"), Operation: "read", Encoding: "utf-8", Format: "text"}),
		},
		{
			def: Definition{
				ID: TypeHTTPTrigger, Label: "HTTP Request", Category: "Triggers",
				Description: "Trigger workflow on HTTP request", Icon: "Globe",
				Outputs: []port.Spec{{ID: "output", Label: "Response", DataType: port.Any}},
			},
			sections: standardSections(HTTPTriggerBasic{CommonBasic: common("HTTP Request"), Method: "POST", Path: "/trigger"}),
		},
		{
			def: Definition{
				ID: TypeScheduleTrigger, Label: "Schedule", Category: "Triggers",
				Description: "Trigger workflow on schedule", Icon: "Clock",
				Outputs: []port.Spec{{ID: "output", Label: "Trigger", DataType: port.Any}},
			},
			sections: standardSections(ScheduleTriggerBasic{CommonBasic: common("Schedule"), Interval: "5m", Timezone: "UTC"}),
		},
		{
			def: Definition{
				ID: TypeWebhookTrigger, Label: "Webhook", Category: "Triggers",
				Description: "Trigger workflow via webhook", Icon: "Webhook",
				Outputs: []port.Spec{{ID: "output", Label: "Payload", DataType: port.Any}},
			},
			sections: standardSections(WebhookTriggerBasic{CommonBasic: common("Webhook Trigger"), Path: "/webhook", Method: "POST"}),
		},
	}
}

// Builtin returns a registry holding the built-in catalog.
func Builtin() *Registry {
	r := NewRegistry(nil)
	for _, e := range builtinEntries() {
		def, err := Typed(e.def, e.sections)
		if err != nil {
			panic(err)
		}
		if err := r.Register(def); err != nil {
			panic(err)
		}
	}
	return r
}
