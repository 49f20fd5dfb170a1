// Package query defines the closed set of client methods and how each one
// maps onto the engine: its operation kind, its GraphQL field name and its
// JSON protocol action.
package query

import (
	"fmt"
	"strings"
)

// Method is a client action.
type Method string

const (
	Create            Method = "create"
	Delete            Method = "delete"
	Update            Method = "update"
	Upsert            Method = "upsert"
	QueryRaw          Method = "query_raw"
	QueryFirst        Method = "query_first"
	CreateMany        Method = "create_many"
	ExecuteRaw        Method = "execute_raw"
	DeleteMany        Method = "delete_many"
	UpdateMany        Method = "update_many"
	Count             Method = "count"
	GroupBy           Method = "group_by"
	FindMany          Method = "find_many"
	FindFirst         Method = "find_first"
	FindFirstOrRaise  Method = "find_first_or_raise"
	FindUnique        Method = "find_unique"
	FindUniqueOrRaise Method = "find_unique_or_raise"
)

// Operation is the GraphQL operation kind of a method.
type Operation string

const (
	OperationQuery    Operation = "query"
	OperationMutation Operation = "mutation"
)

type methodInfo struct {
	operation Operation
	// template is the GraphQL field name; %s is replaced by the model name.
	template string
	// action is the JSON protocol action.
	action string
	// records is set when the result is one or more records of the model.
	records bool
}

var methods = map[Method]methodInfo{
	Create:            {OperationMutation, "createOne%s", "createOne", true},
	Delete:            {OperationMutation, "deleteOne%s", "deleteOne", true},
	Update:            {OperationMutation, "updateOne%s", "updateOne", true},
	Upsert:            {OperationMutation, "upsertOne%s", "upsertOne", true},
	QueryRaw:          {OperationMutation, "queryRaw", "queryRaw", false},
	QueryFirst:        {OperationMutation, "queryRaw", "queryRaw", false},
	CreateMany:        {OperationMutation, "createMany%s", "createMany", false},
	ExecuteRaw:        {OperationMutation, "executeRaw", "executeRaw", false},
	DeleteMany:        {OperationMutation, "deleteMany%s", "deleteMany", false},
	UpdateMany:        {OperationMutation, "updateMany%s", "updateMany", false},
	Count:             {OperationQuery, "aggregate%s", "aggregate", false},
	GroupBy:           {OperationQuery, "groupBy%s", "groupBy", false},
	FindMany:          {OperationQuery, "findMany%s", "findMany", true},
	FindFirst:         {OperationQuery, "findFirst%s", "findFirst", true},
	FindFirstOrRaise:  {OperationQuery, "findFirst%sOrThrow", "findFirstOrThrow", true},
	FindUnique:        {OperationQuery, "findUnique%s", "findUnique", true},
	FindUniqueOrRaise: {OperationQuery, "findUnique%sOrThrow", "findUniqueOrThrow", true},
}

// Methods returns every method in a stable order.
func Methods() []Method {
	return []Method{
		Create, Delete, Update, Upsert, QueryRaw, QueryFirst, CreateMany, ExecuteRaw,
		DeleteMany, UpdateMany, Count, GroupBy, FindMany, FindFirst, FindFirstOrRaise,
		FindUnique, FindUniqueOrRaise,
	}
}

// ParseMethod converts a method name such as "find_unique" into a Method.
// The camel case form ("findUnique") is accepted as well.
func ParseMethod(s string) (Method, error) {
	if _, ok := methods[Method(s)]; ok {
		return Method(s), nil
	}
	for _, m := range Methods() {
		if strings.EqualFold(strings.ReplaceAll(string(m), "_", ""), s) {
			return m, nil
		}
	}
	return "", fmt.Errorf("unknown method %q", s)
}

// Valid reports whether m is a known method.
func (m Method) Valid() bool {
	_, ok := methods[m]
	return ok
}

// Operation returns the GraphQL operation kind.
func (m Method) Operation() Operation {
	return methods[m].operation
}

// WireName returns the GraphQL field name for the given model.
func (m Method) WireName(model string) string {
	info := methods[m]
	if !strings.Contains(info.template, "%s") {
		return info.template
	}
	return fmt.Sprintf(info.template, model)
}

// Action returns the JSON protocol action name.
func (m Method) Action() string {
	return methods[m].action
}

// IsRaw reports whether m runs raw SQL and so bypasses selection handling.
func (m Method) IsRaw() bool {
	return m == QueryRaw || m == QueryFirst || m == ExecuteRaw
}

// ReturnsRecords reports whether the result is one or more model records,
// which is when an include argument is meaningful.
func (m Method) ReturnsRecords() bool {
	return methods[m].records
}

// String returns the method name.
func (m Method) String() string { return string(m) }
