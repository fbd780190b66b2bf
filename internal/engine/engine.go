package engine

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/constructs-go/constructs/v10"
	"github.com/aws/jsii-runtime-go"
	"github.com/qrioso-software/qrioslambda/internal/config"
)

// NewStack crea el stack del proyecto con todas sus funciones. Si alguna
// falla se siguen resolviendo las demás y se retornan todos los errores.
func NewStack(ctx context.Context, scope constructs.Construct, p *config.Project, r Resolver) (awscdk.Stack, error) {
	var env *awscdk.Environment
	if p.Region != "" {
		env = &awscdk.Environment{Region: jsii.String(p.Region)}
	}
	stack := awscdk.NewStack(scope, jsii.String(p.StackName()), &awscdk.StackProps{Env: env})

	ids := make([]string, 0, len(p.Functions))
	for id := range p.Functions {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var errs []error
	for _, id := range ids {
		fn := p.Functions[id]
		_, err := AddFunction(ctx, stack, r, FunctionOptions{
			Name:         fn.Name,
			UniqueName:   fn.UniqueName,
			Runtime:      fn.Runtime,
			Handler:      fn.Handler,
			Role:         fn.Role,
			FunctionName: fmt.Sprintf("%s-%s", p.StackName(), id),
			MemorySize:   fn.MemorySize,
			Timeout:      fn.Timeout,
		})
		if err != nil {
			errs = append(errs, fmt.Errorf("function %s: %w", id, err))
		}
	}

	return stack, errors.Join(errs...)
}

// Synth genera el Cloud Assembly en outdir (vacío = el que indique CDK_OUTDIR
// o cdk.out).
func Synth(ctx context.Context, p *config.Project, r Resolver, outdir string) error {
	props := &awscdk.AppProps{}
	if outdir != "" {
		props.Outdir = jsii.String(outdir)
	}
	app := awscdk.NewApp(props)

	if _, err := NewStack(ctx, app, p, r); err != nil {
		return err
	}

	app.Synth(nil)
	return nil
}
