package config

import "slices"

// Key declares a configuration variable.
type Key struct {
	Name        string
	Type        Type
	Default     Value
	Description string
}

// Names of the declared keys used outside this package.
const (
	RetryAttempts          = "RETRY_ATTEMPTS"
	BackoffFactor          = "BACKOFF_FACTOR"
	Debug                  = "DEBUG"
	MaxTableWidth          = "MAX_TABLE_WIDTH"
	TrackingURI            = "MLFLOW_TRACKING_URI"
	TrackingRequestsPerSec = "MLFLOW_REQUESTS_PER_SECOND"

	SageMakerInstanceType     = "DEFAULT_SAGEMAKER_INSTANCE_TYPE"
	SageMakerInstanceCount    = "DEFAULT_SAGEMAKER_INSTANCE_COUNT"
	SageMakerRegion           = "DEFAULT_SAGEMAKER_REGION"
	SageMakerExecutionRoleARN = "DEFAULT_SAGEMAKER_EXECUTION_ROLE_ARN"
	SageMakerModelsBucket     = "DEFAULT_SAGEMAKER_S3_MODELS_ARTIFACT"
	SageMakerInferenceImage   = "DEFAULT_SAGEMAKER_INFERENCE_IMAGE"
	SageMakerDeployTimeout    = "DEFAULT_SAGEMAKER_DEPLOY_TIMEOUT"
	SageMakerVPCConfig        = "DEFAULT_SAGEMAKER_VPC_CONFIG"
	SageMakerSecurityGroups   = "DEFAULT_SAGEMAKER_VPC_SECURITY_GROUPS"
	SageMakerSubnets          = "DEFAULT_SAGEMAKER_VPC_SUBNETS"
	SageMakerLocalRunPort     = "DEFAULT_SAGEMAKER_LOCAL_RUN_PORT"

	LambdaARN     = "DEFAULT_LAMBDA_ARN"
	LambdaLayers  = "DEFAULT_LAMBDA_LAYERS"
	LambdaRAM     = "DEFAULT_LAMBDA_RAM"
	LambdaRuntime = "DEFAULT_LAMBDA_RUNTIME"
	LambdaTimeout = "DEFAULT_LAMBDA_TIMEOUT"

	GatewayID             = "DEFAULT_API_GATEWAY_ID"
	GatewayStage          = "DEFAULT_API_GATEWAY_STAGE"
	GatewayAuthorization  = "DEFAULT_API_GATEWAY_AUTHORIZATION"
	GatewayLambdaCallRole = "DEFAULT_API_GATEWAY_LAMBDA_CALL_ROLE"
)

var declared = []Key{
	{RetryAttempts, TypeInt, IntValue(3), "How many retries the HTTP client makes on transient errors"},
	{BackoffFactor, TypeInt, IntValue(1), "Backoff factor in seconds between retries"},
	{Debug, TypeBool, BoolValue(false), "Enable verbose program output"},
	{MaxTableWidth, TypeInt, IntValue(230), "Max width of the output table in console"},
	{TrackingURI, TypeString, StringValue("http://localhost:5000/"), "MLflow tracking URL"},
	{TrackingRequestsPerSec, TypeInt, IntValue(10), "Request rate limit for the tracking server (0 disables)"},

	{SageMakerInstanceType, TypeString, StringValue("ml.m4.xlarge"), "Default shape for the SageMaker instance"},
	{SageMakerInstanceCount, TypeInt, IntValue(1), "Default count of instances for the SageMaker model deployment"},
	{SageMakerRegion, TypeString, StringValue("us-west-1"), "Default region where to deploy SageMaker model"},
	{SageMakerExecutionRoleARN, TypeString, Unset, "Execution role for AWS SageMaker"},
	{SageMakerModelsBucket, TypeString, Unset, "Default S3 bucket name for model artifacts"},
	{SageMakerInferenceImage, TypeString, Unset, "Default Docker image for inference process"},
	{SageMakerDeployTimeout, TypeInt, IntValue(1200), "Default timeout in seconds for the SageMaker deploy process"},
	{SageMakerVPCConfig, TypeString, Unset, "Path to the file with default VPC config"},
	{SageMakerSecurityGroups, TypeList, ListValue(), "Default VPC security group IDs"},
	{SageMakerSubnets, TypeList, ListValue(), "Default VPC subnet IDs"},
	{SageMakerLocalRunPort, TypeInt, IntValue(5005), "Default port to run SageMaker model locally on"},

	{LambdaARN, TypeString, StringValue(""), "Default ARN for lambda function"},
	{LambdaLayers, TypeList, ListValue(), "Default Lambda layers"},
	{LambdaRAM, TypeInt, IntValue(256), "Default Lambda RAM size"},
	{LambdaRuntime, TypeString, StringValue("python3.8"), "Default Lambda runtime"},
	{LambdaTimeout, TypeInt, IntValue(120), "Default Lambda timeout"},

	{GatewayID, TypeString, Unset, "Default API Gateway where to publish function to"},
	{GatewayStage, TypeString, Unset, "Default stage to use on API Gateway"},
	{GatewayAuthorization, TypeString, Unset, "Default API Gateway authorization"},
	{GatewayLambdaCallRole, TypeString, Unset, "Default API Gateway role for lambda calling"},
}

// DefaultKeys returns the keys the CLI declares, in listing order.
func DefaultKeys() []Key {
	return slices.Clone(declared)
}
