package services

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"

	"collabmatch_server/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeDynamo is an in-memory DynamoAPI used by the service tests. It
// implements just the expression subset the services issue, but it
// honors conditional writes atomically under one lock, which is what
// lets the tests drive real concurrent create races.
type fakeDynamo struct {
	mu     sync.Mutex
	tables map[string]*fakeTable

	// failPut makes the next PutItem against a table fail once.
	failPut map[string]error
}

type fakeTable struct {
	pk    string
	sk    string            // empty when the table has no sort key
	gsis  map[string]string // index name -> partition attribute
	items map[string]map[string]types.AttributeValue
}

func newFakeDynamo() *fakeDynamo {
	return &fakeDynamo{
		tables: map[string]*fakeTable{
			models.ProfilesTable: {pk: "uid", items: map[string]map[string]types.AttributeValue{}},
			models.SwipeActionsTable: {
				pk: "subjectId", sk: "createdAt",
				gsis:  map[string]string{models.TargetIDIndex: "targetId"},
				items: map[string]map[string]types.AttributeValue{},
			},
			models.MatchesTable:       {pk: "pairId", items: map[string]map[string]types.AttributeValue{}},
			models.ConversationsTable: {pk: "conversationId", items: map[string]map[string]types.AttributeValue{}},
			models.MessagesTable:      {pk: "conversationId", sk: "sentAt", items: map[string]map[string]types.AttributeValue{}},
		},
	}
}

func (f *fakeDynamo) table(name *string) (*fakeTable, error) {
	t, ok := f.tables[aws.ToString(name)]
	if !ok {
		return nil, fmt.Errorf("unknown table %q", aws.ToString(name))
	}
	return t, nil
}

func (t *fakeTable) keyOf(item map[string]types.AttributeValue) string {
	key := stringAttr(item, t.pk)
	if t.sk != "" {
		key += "|" + stringAttr(item, t.sk)
	}
	return key
}

func stringAttr(item map[string]types.AttributeValue, name string) string {
	if s, ok := item[name].(*types.AttributeValueMemberS); ok {
		return s.Value
	}
	return ""
}

func cloneItem(item map[string]types.AttributeValue) map[string]types.AttributeValue {
	out := make(map[string]types.AttributeValue, len(item))
	for k, v := range item {
		out[k] = v
	}
	return out
}

// --- expression helpers -------------------------------------------------

func resolveName(token string, names map[string]string) string {
	if strings.HasPrefix(token, "#") {
		if resolved, ok := names[token]; ok {
			return resolved
		}
	}
	return token
}

func attrEqual(a, b types.AttributeValue) bool {
	switch av := a.(type) {
	case *types.AttributeValueMemberS:
		bv, ok := b.(*types.AttributeValueMemberS)
		return ok && av.Value == bv.Value
	case *types.AttributeValueMemberN:
		bv, ok := b.(*types.AttributeValueMemberN)
		return ok && av.Value == bv.Value
	case *types.AttributeValueMemberBOOL:
		bv, ok := b.(*types.AttributeValueMemberBOOL)
		return ok && av.Value == bv.Value
	}
	return false
}

// evalCondition handles the subset the services use: clauses joined by
// a single OR or AND level, each clause one of attribute_exists(x),
// attribute_not_exists(x), `x = :v`, `x <> :v`.
func evalCondition(expr string, item map[string]types.AttributeValue, values map[string]types.AttributeValue, names map[string]string) bool {
	if parts := strings.Split(expr, " OR "); len(parts) > 1 {
		for _, part := range parts {
			if evalCondition(part, item, values, names) {
				return true
			}
		}
		return false
	}
	if parts := strings.Split(expr, " AND "); len(parts) > 1 {
		for _, part := range parts {
			if !evalCondition(part, item, values, names) {
				return false
			}
		}
		return true
	}

	expr = strings.TrimSpace(expr)
	if strings.HasPrefix(expr, "attribute_not_exists(") {
		attr := resolveName(strings.TrimSuffix(strings.TrimPrefix(expr, "attribute_not_exists("), ")"), names)
		if item == nil {
			return true
		}
		_, ok := item[attr]
		return !ok
	}
	if strings.HasPrefix(expr, "attribute_exists(") {
		attr := resolveName(strings.TrimSuffix(strings.TrimPrefix(expr, "attribute_exists("), ")"), names)
		if item == nil {
			return false
		}
		_, ok := item[attr]
		return ok
	}

	if fields := strings.Fields(expr); len(fields) == 3 {
		attr := resolveName(fields[0], names)
		want := values[fields[2]]
		if item == nil {
			return false
		}
		have, ok := item[attr]
		switch fields[1] {
		case "=":
			return ok && want != nil && attrEqual(have, want)
		case "<>":
			return !ok || want == nil || !attrEqual(have, want)
		}
	}
	return false
}

// applyUpdate handles "SET a = :v, b = :v" clauses, including the
// "path = if_not_exists(path, :default) + :increment" counter form, and
// an optional "ADD attr :v" section. Like the real service, ADD is
// rejected on nested document paths.
func applyUpdate(item map[string]types.AttributeValue, expr string, values map[string]types.AttributeValue, names map[string]string) error {
	setPart := ""
	addPart := ""
	trimmed := strings.TrimSpace(expr)
	if strings.HasPrefix(trimmed, "ADD ") {
		addPart = strings.TrimSpace(strings.TrimPrefix(trimmed, "ADD "))
	} else if idx := strings.Index(trimmed, " ADD "); idx >= 0 {
		setPart = trimmed[:idx]
		addPart = strings.TrimSpace(trimmed[idx+len(" ADD "):])
	} else {
		setPart = trimmed
	}
	setPart = strings.TrimSpace(strings.TrimPrefix(setPart, "SET"))

	if setPart != "" {
		for _, clause := range splitTopLevel(setPart) {
			sides := strings.SplitN(clause, " = ", 2)
			if len(sides) != 2 {
				return fmt.Errorf("unsupported SET clause %q", clause)
			}
			value, err := evalSetOperand(item, strings.TrimSpace(sides[1]), values, names)
			if err != nil {
				return err
			}
			if err := setPath(item, strings.TrimSpace(sides[0]), value, names); err != nil {
				return err
			}
		}
	}

	if addPart != "" {
		fields := strings.Fields(addPart)
		if len(fields) != 2 {
			return fmt.Errorf("unsupported ADD clause %q", addPart)
		}
		if strings.Contains(fields[0], ".") {
			return fmt.Errorf("ValidationException: the ADD action is not allowed on nested path %q", fields[0])
		}
		attr := resolveName(fields[0], names)
		value, ok := values[fields[1]].(*types.AttributeValueMemberN)
		if !ok {
			return fmt.Errorf("ADD needs a numeric value for %q", fields[1])
		}
		delta, err := strconv.Atoi(value.Value)
		if err != nil {
			return err
		}
		current := 0
		if n, ok := item[attr].(*types.AttributeValueMemberN); ok {
			current, _ = strconv.Atoi(n.Value)
		}
		item[attr] = &types.AttributeValueMemberN{Value: strconv.Itoa(current + delta)}
	}
	return nil
}

// splitTopLevel splits comma-separated clauses, ignoring commas inside
// function parentheses such as if_not_exists(path, :default).
func splitTopLevel(expr string) []string {
	var parts []string
	depth, start := 0, 0
	for i, r := range expr {
		switch r {
		case '(':
			depth++
		case ')':
			depth--
		case ',':
			if depth == 0 {
				parts = append(parts, strings.TrimSpace(expr[start:i]))
				start = i + 1
			}
		}
	}
	return append(parts, strings.TrimSpace(expr[start:]))
}

// evalSetOperand resolves a SET right-hand side: either a plain :value
// token or "if_not_exists(path, :default) + :increment".
func evalSetOperand(item map[string]types.AttributeValue, rhs string, values map[string]types.AttributeValue, names map[string]string) (types.AttributeValue, error) {
	if !strings.HasPrefix(rhs, "if_not_exists(") {
		value, ok := values[rhs]
		if !ok {
			return nil, fmt.Errorf("missing expression value %q", rhs)
		}
		return value, nil
	}

	end := strings.Index(rhs, ")")
	if end < 0 {
		return nil, fmt.Errorf("unbalanced if_not_exists in %q", rhs)
	}
	args := strings.SplitN(rhs[len("if_not_exists("):end], ",", 2)
	if len(args) != 2 {
		return nil, fmt.Errorf("if_not_exists needs a path and a default in %q", rhs)
	}

	base, ok := getPath(item, splitPath(strings.TrimSpace(args[0]), names))
	if !ok {
		base, ok = values[strings.TrimSpace(args[1])]
		if !ok {
			return nil, fmt.Errorf("missing expression value %q", strings.TrimSpace(args[1]))
		}
	}

	rest := strings.TrimSpace(rhs[end+1:])
	if rest == "" {
		return base, nil
	}
	if !strings.HasPrefix(rest, "+") {
		return nil, fmt.Errorf("unsupported SET operand %q", rhs)
	}

	increment, ok := values[strings.TrimSpace(rest[1:])].(*types.AttributeValueMemberN)
	if !ok {
		return nil, fmt.Errorf("arithmetic needs a numeric value in %q", rhs)
	}
	baseN, ok := base.(*types.AttributeValueMemberN)
	if !ok {
		return nil, fmt.Errorf("arithmetic on non-numeric attribute in %q", rhs)
	}
	a, err := strconv.Atoi(baseN.Value)
	if err != nil {
		return nil, err
	}
	b, err := strconv.Atoi(increment.Value)
	if err != nil {
		return nil, err
	}
	return &types.AttributeValueMemberN{Value: strconv.Itoa(a + b)}, nil
}

func splitPath(path string, names map[string]string) []string {
	segments := strings.Split(path, ".")
	for i, segment := range segments {
		segments[i] = resolveName(segment, names)
	}
	return segments
}

func setPath(item map[string]types.AttributeValue, path string, value types.AttributeValue, names map[string]string) error {
	segments := splitPath(path, names)
	switch len(segments) {
	case 1:
		item[segments[0]] = value
		return nil
	case 2:
		parent, ok := item[segments[0]].(*types.AttributeValueMemberM)
		if !ok {
			return fmt.Errorf("document path %q is not a map", segments[0])
		}
		next := make(map[string]types.AttributeValue, len(parent.Value))
		for k, v := range parent.Value {
			next[k] = v
		}
		next[segments[1]] = value
		item[segments[0]] = &types.AttributeValueMemberM{Value: next}
		return nil
	}
	return fmt.Errorf("unsupported document path %q", path)
}

func getPath(item map[string]types.AttributeValue, segments []string) (types.AttributeValue, bool) {
	switch len(segments) {
	case 1:
		value, ok := item[segments[0]]
		return value, ok
	case 2:
		parent, ok := item[segments[0]].(*types.AttributeValueMemberM)
		if !ok {
			return nil, false
		}
		value, ok := parent.Value[segments[1]]
		return value, ok
	}
	return nil, false
}

// --- DynamoAPI ----------------------------------------------------------

func (f *fakeDynamo) GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	t, err := f.table(params.TableName)
	if err != nil {
		return nil, err
	}
	item, ok := t.items[t.keyOf(params.Key)]
	if !ok {
		return &dynamodb.GetItemOutput{}, nil
	}
	return &dynamodb.GetItemOutput{Item: cloneItem(item)}, nil
}

func (f *fakeDynamo) PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err, ok := f.failPut[aws.ToString(params.TableName)]; ok {
		delete(f.failPut, aws.ToString(params.TableName))
		return nil, err
	}

	t, err := f.table(params.TableName)
	if err != nil {
		return nil, err
	}

	key := t.keyOf(params.Item)
	if params.ConditionExpression != nil {
		existing := t.items[key] // nil when absent
		if !evalCondition(*params.ConditionExpression, existing, params.ExpressionAttributeValues, params.ExpressionAttributeNames) {
			return nil, &types.ConditionalCheckFailedException{Message: aws.String("The conditional request failed")}
		}
	}

	t.items[key] = cloneItem(params.Item)
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeDynamo) DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	t, err := f.table(params.TableName)
	if err != nil {
		return nil, err
	}
	delete(t.items, t.keyOf(params.Key))
	return &dynamodb.DeleteItemOutput{}, nil
}

func (f *fakeDynamo) UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	t, err := f.table(params.TableName)
	if err != nil {
		return nil, err
	}

	key := t.keyOf(params.Key)
	item, ok := t.items[key]
	if !ok {
		// Dynamo upserts on update; start from the key attributes.
		item = cloneItem(params.Key)
	} else {
		item = cloneItem(item)
	}

	if params.ConditionExpression != nil {
		existing := t.items[key]
		if !evalCondition(*params.ConditionExpression, existing, params.ExpressionAttributeValues, params.ExpressionAttributeNames) {
			return nil, &types.ConditionalCheckFailedException{Message: aws.String("The conditional request failed")}
		}
	}

	if err := applyUpdate(item, aws.ToString(params.UpdateExpression), params.ExpressionAttributeValues, params.ExpressionAttributeNames); err != nil {
		return nil, err
	}
	t.items[key] = item
	return &dynamodb.UpdateItemOutput{Attributes: cloneItem(item)}, nil
}

func (f *fakeDynamo) Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	t, err := f.table(params.TableName)
	if err != nil {
		return nil, err
	}

	keyAttr := t.pk
	if params.IndexName != nil {
		gsiAttr, ok := t.gsis[*params.IndexName]
		if !ok {
			return nil, fmt.Errorf("unknown index %q", *params.IndexName)
		}
		keyAttr = gsiAttr
	}

	fields := strings.Fields(aws.ToString(params.KeyConditionExpression))
	if len(fields) != 3 || fields[1] != "=" {
		return nil, fmt.Errorf("unsupported key condition %q", aws.ToString(params.KeyConditionExpression))
	}
	condAttr := resolveName(fields[0], params.ExpressionAttributeNames)
	if condAttr != keyAttr {
		return nil, fmt.Errorf("key condition on %q but table key is %q", condAttr, keyAttr)
	}
	want := params.ExpressionAttributeValues[fields[2]]

	var matched []map[string]types.AttributeValue
	for _, item := range t.items {
		if have, ok := item[condAttr]; ok && attrEqual(have, want) {
			matched = append(matched, cloneItem(item))
		}
	}

	if t.sk != "" {
		sort.Slice(matched, func(i, j int) bool {
			return stringAttr(matched[i], t.sk) < stringAttr(matched[j], t.sk)
		})
	}
	if params.ScanIndexForward != nil && !*params.ScanIndexForward {
		for i, j := 0, len(matched)-1; i < j; i, j = i+1, j-1 {
			matched[i], matched[j] = matched[j], matched[i]
		}
	}
	if params.Limit != nil && int(*params.Limit) < len(matched) {
		matched = matched[:*params.Limit]
	}

	return &dynamodb.QueryOutput{Items: matched}, nil
}

func (f *fakeDynamo) Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	t, err := f.table(params.TableName)
	if err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(t.items))
	for key := range t.items {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	// Limit counts items examined, not items matched, so a filtered
	// scan page can come back smaller than the limit.
	var matched []map[string]types.AttributeValue
	for examined, key := range keys {
		if params.Limit != nil && examined == int(*params.Limit) {
			break
		}
		item := t.items[key]
		if params.FilterExpression != nil &&
			!evalCondition(*params.FilterExpression, item, params.ExpressionAttributeValues, params.ExpressionAttributeNames) {
			continue
		}
		matched = append(matched, cloneItem(item))
	}
	return &dynamodb.ScanOutput{Items: matched}, nil
}

func (f *fakeDynamo) TransactWriteItems(ctx context.Context, params *dynamodb.TransactWriteItemsInput, optFns ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	// Validate every condition before applying anything.
	for _, item := range params.TransactItems {
		var tableName *string
		var condition *string
		var key map[string]types.AttributeValue
		var values map[string]types.AttributeValue
		var names map[string]string

		switch {
		case item.Put != nil:
			tableName, condition = item.Put.TableName, item.Put.ConditionExpression
			key = item.Put.Item
			values, names = item.Put.ExpressionAttributeValues, item.Put.ExpressionAttributeNames
		case item.Update != nil:
			tableName, condition = item.Update.TableName, item.Update.ConditionExpression
			key = item.Update.Key
			values, names = item.Update.ExpressionAttributeValues, item.Update.ExpressionAttributeNames
		default:
			return nil, fmt.Errorf("unsupported transact item")
		}

		if condition == nil {
			continue
		}
		t, err := f.table(tableName)
		if err != nil {
			return nil, err
		}
		existing := t.items[t.keyOf(key)]
		if !evalCondition(*condition, existing, values, names) {
			code := "ConditionalCheckFailed"
			return nil, &types.TransactionCanceledException{
				Message:             aws.String("Transaction cancelled"),
				CancellationReasons: []types.CancellationReason{{Code: &code}},
			}
		}
	}

	for _, item := range params.TransactItems {
		switch {
		case item.Put != nil:
			t, err := f.table(item.Put.TableName)
			if err != nil {
				return nil, err
			}
			t.items[t.keyOf(item.Put.Item)] = cloneItem(item.Put.Item)
		case item.Update != nil:
			t, err := f.table(item.Update.TableName)
			if err != nil {
				return nil, err
			}
			key := t.keyOf(item.Update.Key)
			current, ok := t.items[key]
			if !ok {
				current = cloneItem(item.Update.Key)
			} else {
				current = cloneItem(current)
			}
			if err := applyUpdate(current, aws.ToString(item.Update.UpdateExpression), item.Update.ExpressionAttributeValues, item.Update.ExpressionAttributeNames); err != nil {
				return nil, err
			}
			t.items[key] = current
		}
	}
	return &dynamodb.TransactWriteItemsOutput{}, nil
}

// --- expression semantics -----------------------------------------------

// DynamoDB's ADD action is not allowed on nested document paths; the
// fake must reject it the same way, or an invalid counter update in the
// send path would only surface in production.
func TestUpdateRejectsNestedAdd(t *testing.T) {
	fake := newFakeDynamo()
	tableName := models.ConversationsTable
	key := map[string]types.AttributeValue{
		"conversationId": &types.AttributeValueMemberS{Value: "alice#bob"},
	}
	item := cloneItem(key)
	item["unreadCount"] = &types.AttributeValueMemberM{Value: map[string]types.AttributeValue{
		"bob": &types.AttributeValueMemberN{Value: "0"},
	}}
	_, err := fake.PutItem(context.Background(), &dynamodb.PutItemInput{TableName: &tableName, Item: item})
	require.NoError(t, err)

	update := "SET lastMessage = :content ADD #unread.#rcpt :one"
	_, err = fake.UpdateItem(context.Background(), &dynamodb.UpdateItemInput{
		TableName:        &tableName,
		Key:              key,
		UpdateExpression: &update,
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":content": &types.AttributeValueMemberS{Value: "hi"},
			":one":     &types.AttributeValueMemberN{Value: "1"},
		},
		ExpressionAttributeNames: map[string]string{"#unread": "unreadCount", "#rcpt": "bob"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nested")
}

func TestCounterSetCreatesMissingMapKey(t *testing.T) {
	fake := newFakeDynamo()
	tableName := models.ConversationsTable
	key := map[string]types.AttributeValue{
		"conversationId": &types.AttributeValueMemberS{Value: "alice#bob"},
	}
	item := cloneItem(key)
	item["unreadCount"] = &types.AttributeValueMemberM{Value: map[string]types.AttributeValue{}}
	_, err := fake.PutItem(context.Background(), &dynamodb.PutItemInput{TableName: &tableName, Item: item})
	require.NoError(t, err)

	update := "SET #unread.#rcpt = if_not_exists(#unread.#rcpt, :zero) + :one"
	input := &dynamodb.UpdateItemInput{
		TableName:        &tableName,
		Key:              key,
		UpdateExpression: &update,
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":zero": &types.AttributeValueMemberN{Value: "0"},
			":one":  &types.AttributeValueMemberN{Value: "1"},
		},
		ExpressionAttributeNames: map[string]string{"#unread": "unreadCount", "#rcpt": "bob"},
	}

	out, err := fake.UpdateItem(context.Background(), input)
	require.NoError(t, err)
	counters := out.Attributes["unreadCount"].(*types.AttributeValueMemberM)
	assert.Equal(t, "1", counters.Value["bob"].(*types.AttributeValueMemberN).Value)

	out, err = fake.UpdateItem(context.Background(), input)
	require.NoError(t, err)
	counters = out.Attributes["unreadCount"].(*types.AttributeValueMemberM)
	assert.Equal(t, "2", counters.Value["bob"].(*types.AttributeValueMemberN).Value)
}

// Scan's Limit bounds items examined, not items matched, so a filtered
// page can under-fill.
func TestScanLimitCountsExaminedItems(t *testing.T) {
	fake := newFakeDynamo()
	tableName := models.ProfilesTable
	for i, verified := range []bool{false, false, true, true} {
		item := map[string]types.AttributeValue{
			"uid":        &types.AttributeValueMemberS{Value: fmt.Sprintf("u%d", i+1)},
			"isVerified": &types.AttributeValueMemberBOOL{Value: verified},
		}
		if _, err := fake.PutItem(context.Background(), &dynamodb.PutItemInput{TableName: &tableName, Item: item}); err != nil {
			t.Fatalf("seed row u%d: %v", i+1, err)
		}
	}

	filter := "isVerified = :t"
	values := map[string]types.AttributeValue{":t": &types.AttributeValueMemberBOOL{Value: true}}

	// The first two rows in key order fail the filter, so a limit of 2
	// examines only those and returns nothing.
	limit := int32(2)
	out, err := fake.Scan(context.Background(), &dynamodb.ScanInput{
		TableName:                 &tableName,
		FilterExpression:          &filter,
		ExpressionAttributeValues: values,
		Limit:                     &limit,
	})
	require.NoError(t, err)
	assert.Empty(t, out.Items)

	out, err = fake.Scan(context.Background(), &dynamodb.ScanInput{
		TableName:                 &tableName,
		FilterExpression:          &filter,
		ExpressionAttributeValues: values,
	})
	require.NoError(t, err)
	assert.Len(t, out.Items, 2)
}
