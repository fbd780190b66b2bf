package engine

import (
	"strings"

	"github.com/aws/aws-cdk-go/awscdk/v2/awslambda"
)

// toLambdaRuntime traduce alias comunes del nombre del directorio de runtime
// al runtime de Lambda. nil si no hay alias conocido.
func toLambdaRuntime(s string) awslambda.Runtime {
	key := strings.ToLower(strings.TrimSpace(s))
	key = strings.ReplaceAll(key, "_", "")
	key = strings.ReplaceAll(key, "-", "")
	key = strings.ReplaceAll(key, " ", "")

	switch key {
	case "nodejs", "node", "nodejs20", "nodejs20x":
		return awslambda.Runtime_NODEJS_20_X()
	case "nodejs18", "nodejs18x":
		return awslambda.Runtime_NODEJS_18_X()
	case "python", "python312":
		return awslambda.Runtime_PYTHON_3_12()
	case "python311":
		return awslambda.Runtime_PYTHON_3_11()
	case "java", "java17":
		return awslambda.Runtime_JAVA_17()
	case "java8":
		return awslambda.Runtime_JAVA_8()
	case "dotnet8", "dotnet80":
		return awslambda.Runtime_DOTNET_8()
	case "ruby", "ruby32":
		return awslambda.Runtime_RUBY_3_2()
	case "provided", "providedal2", "go", "go1x":
		return awslambda.Runtime_PROVIDED_AL2()
	default:
		return nil
	}
}

// lambdaRuntimeName retorna el identificador para la propiedad Runtime. Los
// directorios que ya se llaman como el runtime real (python3.12, java8...)
// pasan tal cual.
func lambdaRuntimeName(dir string) string {
	if strings.Contains(dir, ".") {
		return dir
	}
	if rt := toLambdaRuntime(dir); rt != nil {
		return *rt.Name()
	}
	return dir
}
