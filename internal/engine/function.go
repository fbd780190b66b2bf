package engine

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/aws/aws-cdk-go/awscdk/v2/awslambda"
	"github.com/aws/constructs-go/constructs/v10"
	"github.com/aws/jsii-runtime-go"
	"github.com/qrioso-software/qrioslambda/internal/lambda"
)

// DefaultHandler es el handler si la declaración no trae uno.
const DefaultHandler = "handler"

// Resolver es lo que el engine necesita de control.Control.
type Resolver interface {
	Resolve(name, runtime string) (lambda.FunctionRecord, error)
	Materialize(ctx context.Context, rec lambda.FunctionRecord) (lambda.Content, error)
}

// FunctionOptions son los datos de una función a agregar al template.
type FunctionOptions struct {
	Name         string
	UniqueName   string
	Runtime      string
	Handler      string
	Role         string
	FunctionName string
	MemorySize   int
	Timeout      int
}

// AddFunction resuelve la función y agrega un AWS::Lambda::Function al scope.
// El contenido embebido va en Code.ZipFile con handler index.<handler>; el
// remoto en S3Bucket/S3Key/S3ObjectVersion.
func AddFunction(ctx context.Context, scope constructs.Construct, r Resolver, opts FunctionOptions) (awslambda.CfnFunction, error) {
	// jsii entra en pánico si el id ya existe en el scope.
	logicalID := LogicalID(opts.Name, opts.UniqueName)
	if scope.Node().TryFindChild(jsii.String(logicalID)) != nil {
		return nil, fmt.Errorf("%w: duplicate function resource %s (name %q, uniqueName %q); set a distinct uniqueName",
			lambda.ErrConfiguration, logicalID, opts.Name, opts.UniqueName)
	}

	rec, err := r.Resolve(opts.Name, opts.Runtime)
	if err != nil {
		return nil, err
	}
	content, err := r.Materialize(ctx, rec)
	if err != nil {
		return nil, fmt.Errorf("materializing %s: %w", rec, err)
	}

	handler := opts.Handler
	if handler == "" {
		handler = DefaultHandler
	}

	code := &awslambda.CfnFunction_CodeProperty{}
	switch c := content.(type) {
	case lambda.Inline:
		code.ZipFile = jsii.String(string(c.Raw))
		handler = "index." + handler
	case lambda.Remote:
		code.S3Bucket = jsii.String(c.Bucket)
		code.S3Key = jsii.String(c.Key)
		if c.Version != "" {
			code.S3ObjectVersion = jsii.String(c.Version)
		}
	default:
		return nil, fmt.Errorf("unexpected lambda content %T", content)
	}

	functionName := opts.FunctionName
	if functionName == "" {
		functionName = opts.Name
	}

	props := &awslambda.CfnFunctionProps{
		Code:         code,
		Role:         jsii.String(opts.Role),
		Handler:      jsii.String(handler),
		Runtime:      jsii.String(lambdaRuntimeName(rec.Runtime)),
		FunctionName: jsii.String(functionName),
	}
	if opts.MemorySize > 0 {
		props.MemorySize = jsii.Number(float64(opts.MemorySize))
	}
	if opts.Timeout > 0 {
		props.Timeout = jsii.Number(float64(opts.Timeout))
	}

	fn := awslambda.NewCfnFunction(scope, jsii.String(logicalID), props)
	fn.OverrideLogicalId(jsii.String(logicalID))
	return fn, nil
}

// LogicalID arma el id del recurso: "hello_world" + "v2" -> "HelloWorldV2LambdaFunction".
func LogicalID(name, unique string) string {
	var b strings.Builder
	for _, part := range strings.FieldsFunc(name+"_"+unique, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) {
		runes := []rune(part)
		runes[0] = unicode.ToUpper(runes[0])
		b.WriteString(string(runes))
	}
	b.WriteString("LambdaFunction")
	return b.String()
}
