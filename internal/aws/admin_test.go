// Copyright (c) 2026 The scaladm authors.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

package aws

import (
	"bytes"
	"context"
	"fmt"
	"testing"
	"testing/iotest"
	"time"

	awsv2 "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudformation"
	cftypes "github.com/aws/aws-sdk-go-v2/service/cloudformation/types"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/aws/aws-sdk-go-v2/service/iam"
	iamtypes "github.com/aws/aws-sdk-go-v2/service/iam/types"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// apiError builds a smithy APIError with the given code.
func apiError(code, message string) error {
	return &smithy.GenericAPIError{Code: code, Message: message}
}

// fakeIAM records calls and returns canned errors per operation name.
type fakeIAM struct {
	calls []string
	errs  map[string]error
}

func (f *fakeIAM) record(op string) error {
	f.calls = append(f.calls, op)
	return f.errs[op]
}

func (f *fakeIAM) AddUserToGroup(context.Context, *iam.AddUserToGroupInput, ...func(*iam.Options)) (*iam.AddUserToGroupOutput, error) {
	return &iam.AddUserToGroupOutput{}, f.record("AddUserToGroup")
}

func (f *fakeIAM) CreateAccessKey(context.Context, *iam.CreateAccessKeyInput, ...func(*iam.Options)) (*iam.CreateAccessKeyOutput, error) {
	return &iam.CreateAccessKeyOutput{AccessKey: &iamtypes.AccessKey{
		AccessKeyId:     awsv2.String("AKIATEST"),
		SecretAccessKey: awsv2.String("secret"),
	}}, f.record("CreateAccessKey")
}

func (f *fakeIAM) CreateGroup(context.Context, *iam.CreateGroupInput, ...func(*iam.Options)) (*iam.CreateGroupOutput, error) {
	return &iam.CreateGroupOutput{}, f.record("CreateGroup")
}

func (f *fakeIAM) CreateLoginProfile(context.Context, *iam.CreateLoginProfileInput, ...func(*iam.Options)) (*iam.CreateLoginProfileOutput, error) {
	return &iam.CreateLoginProfileOutput{}, f.record("CreateLoginProfile")
}

func (f *fakeIAM) CreateUser(context.Context, *iam.CreateUserInput, ...func(*iam.Options)) (*iam.CreateUserOutput, error) {
	return &iam.CreateUserOutput{}, f.record("CreateUser")
}

func (f *fakeIAM) DeleteAccessKey(context.Context, *iam.DeleteAccessKeyInput, ...func(*iam.Options)) (*iam.DeleteAccessKeyOutput, error) {
	return &iam.DeleteAccessKeyOutput{}, f.record("DeleteAccessKey")
}

func (f *fakeIAM) DeleteLoginProfile(context.Context, *iam.DeleteLoginProfileInput, ...func(*iam.Options)) (*iam.DeleteLoginProfileOutput, error) {
	return &iam.DeleteLoginProfileOutput{}, f.record("DeleteLoginProfile")
}

func (f *fakeIAM) DeleteUser(context.Context, *iam.DeleteUserInput, ...func(*iam.Options)) (*iam.DeleteUserOutput, error) {
	return &iam.DeleteUserOutput{}, f.record("DeleteUser")
}

func (f *fakeIAM) DeleteUserPolicy(context.Context, *iam.DeleteUserPolicyInput, ...func(*iam.Options)) (*iam.DeleteUserPolicyOutput, error) {
	return &iam.DeleteUserPolicyOutput{}, f.record("DeleteUserPolicy")
}

func (f *fakeIAM) ListAccessKeys(context.Context, *iam.ListAccessKeysInput, ...func(*iam.Options)) (*iam.ListAccessKeysOutput, error) {
	return &iam.ListAccessKeysOutput{AccessKeyMetadata: []iamtypes.AccessKeyMetadata{
		{AccessKeyId: awsv2.String("AKIAONE")},
		{AccessKeyId: awsv2.String("AKIATWO")},
	}}, f.record("ListAccessKeys")
}

func (f *fakeIAM) PutGroupPolicy(context.Context, *iam.PutGroupPolicyInput, ...func(*iam.Options)) (*iam.PutGroupPolicyOutput, error) {
	return &iam.PutGroupPolicyOutput{}, f.record("PutGroupPolicy")
}

func (f *fakeIAM) PutUserPolicy(context.Context, *iam.PutUserPolicyInput, ...func(*iam.Options)) (*iam.PutUserPolicyOutput, error) {
	return &iam.PutUserPolicyOutput{}, f.record("PutUserPolicy")
}

func (f *fakeIAM) RemoveUserFromGroup(context.Context, *iam.RemoveUserFromGroupInput, ...func(*iam.Options)) (*iam.RemoveUserFromGroupOutput, error) {
	return &iam.RemoveUserFromGroupOutput{}, f.record("RemoveUserFromGroup")
}

// fakeEC2 records calls and returns canned errors per operation name.
type fakeEC2 struct {
	calls  []string
	errs   map[string]error
	groups []ec2types.SecurityGroup
}

func (f *fakeEC2) record(op string) error {
	f.calls = append(f.calls, op)
	return f.errs[op]
}

func (f *fakeEC2) AuthorizeSecurityGroupIngress(context.Context, *ec2.AuthorizeSecurityGroupIngressInput, ...func(*ec2.Options)) (*ec2.AuthorizeSecurityGroupIngressOutput, error) {
	return &ec2.AuthorizeSecurityGroupIngressOutput{}, f.record("AuthorizeSecurityGroupIngress")
}

func (f *fakeEC2) CreateKeyPair(context.Context, *ec2.CreateKeyPairInput, ...func(*ec2.Options)) (*ec2.CreateKeyPairOutput, error) {
	return &ec2.CreateKeyPairOutput{KeyMaterial: awsv2.String("PEMDATA")},
		f.record("CreateKeyPair")
}

func (f *fakeEC2) CreateSecurityGroup(context.Context, *ec2.CreateSecurityGroupInput, ...func(*ec2.Options)) (*ec2.CreateSecurityGroupOutput, error) {
	return &ec2.CreateSecurityGroupOutput{}, f.record("CreateSecurityGroup")
}

func (f *fakeEC2) DeleteKeyPair(context.Context, *ec2.DeleteKeyPairInput, ...func(*ec2.Options)) (*ec2.DeleteKeyPairOutput, error) {
	return &ec2.DeleteKeyPairOutput{}, f.record("DeleteKeyPair")
}

func (f *fakeEC2) DeleteSecurityGroup(context.Context, *ec2.DeleteSecurityGroupInput, ...func(*ec2.Options)) (*ec2.DeleteSecurityGroupOutput, error) {
	return &ec2.DeleteSecurityGroupOutput{}, f.record("DeleteSecurityGroup")
}

func (f *fakeEC2) DescribeSecurityGroups(context.Context, *ec2.DescribeSecurityGroupsInput, ...func(*ec2.Options)) (*ec2.DescribeSecurityGroupsOutput, error) {
	return &ec2.DescribeSecurityGroupsOutput{SecurityGroups: f.groups},
		f.record("DescribeSecurityGroups")
}

// fakeCF serves a static stack listing.
type fakeCF struct {
	deleted []string
	stacks  []cftypes.StackSummary
	vErr    error
}

func (f *fakeCF) DeleteStack(_ context.Context, in *cloudformation.DeleteStackInput, _ ...func(*cloudformation.Options)) (*cloudformation.DeleteStackOutput, error) {
	f.deleted = append(f.deleted, awsv2.ToString(in.StackName))
	return &cloudformation.DeleteStackOutput{}, nil
}

func (f *fakeCF) ListStacks(context.Context, *cloudformation.ListStacksInput, ...func(*cloudformation.Options)) (*cloudformation.ListStacksOutput, error) {
	return &cloudformation.ListStacksOutput{StackSummaries: f.stacks}, nil
}

func (f *fakeCF) ValidateTemplate(context.Context, *cloudformation.ValidateTemplateInput, ...func(*cloudformation.Options)) (*cloudformation.ValidateTemplateOutput, error) {
	return &cloudformation.ValidateTemplateOutput{}, f.vErr
}

// fakeS3 captures uploads.
type fakeS3 struct {
	bucket string
	key    string
	err    error
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.bucket = awsv2.ToString(in.Bucket)
	f.key = awsv2.ToString(in.Key)
	return &s3.PutObjectOutput{}, f.err
}

func newTestAdmin(fi *fakeIAM, fe *fakeEC2, fc *fakeCF, fs *fakeS3, out *bytes.Buffer) *Admin {
	if fi.errs == nil {
		fi.errs = map[string]error{}
	}
	if fe.errs == nil {
		fe.errs = map[string]error{}
	}
	return &Admin{
		iam:           fi,
		ec2:           fe,
		cf:            fc,
		s3:            fs,
		group:         DefaultGroup,
		instanceTypes: DefaultInstanceTypes,
		region:        DefaultRegion,
		out:           out,
	}
}

func TestConfigureNewTeam(t *testing.T) {
	t.Chdir(t.TempDir()) // Configure writes TEAM.pem into the CWD.

	var out bytes.Buffer
	fi := &fakeIAM{}
	fe := &fakeEC2{}
	a := newTestAdmin(fi, fe, &fakeCF{}, &fakeS3{}, &out)

	require.NoError(t, a.Configure(context.Background(), "Gradr"))

	assert.Equal(t, []string{
		"CreateGroup", "PutGroupPolicy", "CreateUser", "CreateLoginProfile",
		"CreateAccessKey", "AddUserToGroup", "PutUserPolicy",
	}, fi.calls)

	// Security group, three port rules, one intra-group rule.
	assert.Equal(t, []string{
		"CreateKeyPair", "CreateSecurityGroup",
		"AuthorizeSecurityGroupIngress", "AuthorizeSecurityGroupIngress",
		"AuthorizeSecurityGroupIngress", "AuthorizeSecurityGroupIngress",
	}, fe.calls)

	text := out.String()
	assert.Contains(t, text, "AccessKey: AKIATEST")
	assert.Contains(t, text, "SecretKey: secret")
	assert.Contains(t, text, "Keypair saved as: Gradr.pem")
}

func TestConfigureExistingUserSkipsCredentials(t *testing.T) {
	var out bytes.Buffer
	fi := &fakeIAM{errs: map[string]error{
		"CreateUser": apiError("EntityAlreadyExists", "user exists"),
	}}
	fe := &fakeEC2{}
	a := newTestAdmin(fi, fe, &fakeCF{}, &fakeS3{}, &out)

	require.NoError(t, a.Configure(context.Background(), "Gradr"))

	assert.NotContains(t, fi.calls, "CreateLoginProfile")
	assert.NotContains(t, fi.calls, "CreateAccessKey")
	assert.NotContains(t, fe.calls, "CreateKeyPair")
	// The policy update still happens so re-runs apply team updates.
	assert.Contains(t, fi.calls, "PutUserPolicy")
	assert.Contains(t, out.String(), "Exists: CreateUser Gradr")
}

func TestConfigureContinuesPastFailures(t *testing.T) {
	var out bytes.Buffer
	fi := &fakeIAM{errs: map[string]error{
		"CreateGroup": apiError("AccessDenied", "not allowed"),
		"CreateUser":  apiError("AccessDenied", "not allowed"),
	}}
	fe := &fakeEC2{}
	a := newTestAdmin(fi, fe, &fakeCF{}, &fakeS3{}, &out)

	require.NoError(t, a.Configure(context.Background(), "Gradr"))

	// A failed step is reported and the sequence continues.
	assert.Contains(t, out.String(), "Failed: CreateGroup scalable-admin: not allowed")
	assert.Contains(t, fi.calls, "PutUserPolicy")
	assert.Contains(t, fe.calls, "CreateSecurityGroup")
}

func TestCleanup(t *testing.T) {
	now := time.Now().UTC()
	fc := &fakeCF{stacks: []cftypes.StackSummary{
		{
			StackName:    awsv2.String("old-stack"),
			StackStatus:  cftypes.StackStatusCreateComplete,
			CreationTime: awsv2.Time(now.Add(-10 * time.Hour)),
		},
		{
			StackName:    awsv2.String("fresh-stack"),
			StackStatus:  cftypes.StackStatusCreateComplete,
			CreationTime: awsv2.Time(now.Add(-1 * time.Hour)),
		},
		{
			StackName:    awsv2.String("gone-stack"),
			StackStatus:  cftypes.StackStatusDeleteComplete,
			CreationTime: awsv2.Time(now.Add(-100 * time.Hour)),
		},
	}}
	var out bytes.Buffer
	a := newTestAdmin(&fakeIAM{}, &fakeEC2{}, fc, &fakeS3{}, &out)

	stacks, err := a.Cleanup(context.Background(), 8*time.Hour, false)
	require.NoError(t, err)
	require.Len(t, stacks, 1)
	assert.Equal(t, "old-stack", stacks[0].Name)
	assert.Equal(t, []string{"old-stack"}, fc.deleted)
}

func TestCleanupDryRun(t *testing.T) {
	now := time.Now().UTC()
	fc := &fakeCF{stacks: []cftypes.StackSummary{{
		StackName:    awsv2.String("old-stack"),
		StackStatus:  cftypes.StackStatusCreateComplete,
		CreationTime: awsv2.Time(now.Add(-10 * time.Hour)),
	}}}
	var out bytes.Buffer
	a := newTestAdmin(&fakeIAM{}, &fakeEC2{}, fc, &fakeS3{}, &out)

	stacks, err := a.Cleanup(context.Background(), 8*time.Hour, true)
	require.NoError(t, err)
	assert.Len(t, stacks, 1)
	assert.Empty(t, fc.deleted)
}

func TestPurge(t *testing.T) {
	var out bytes.Buffer
	fi := &fakeIAM{}
	fe := &fakeEC2{}
	a := newTestAdmin(fi, fe, &fakeCF{}, &fakeS3{}, &out)

	require.NoError(t, a.Purge(context.Background(), "Gradr"))

	assert.Equal(t, []string{
		"DeleteLoginProfile", "DeleteUserPolicy", "ListAccessKeys",
		"DeleteAccessKey", "DeleteAccessKey",
		"RemoveUserFromGroup", "DeleteUser",
	}, fi.calls)
	assert.Equal(t, []string{"DeleteKeyPair", "DeleteSecurityGroup"}, fe.calls)
}

func TestPurgeContinuesPastFailures(t *testing.T) {
	var out bytes.Buffer
	fi := &fakeIAM{errs: map[string]error{
		"DeleteLoginProfile": apiError("NoSuchEntity", "no profile"),
		"ListAccessKeys":     apiError("NoSuchEntity", "no user"),
	}}
	fe := &fakeEC2{}
	a := newTestAdmin(fi, fe, &fakeCF{}, &fakeS3{}, &out)

	require.NoError(t, a.Purge(context.Background(), "Gradr"))

	assert.NotContains(t, fi.calls, "DeleteAccessKey")
	assert.Contains(t, fi.calls, "DeleteUser")
	assert.Contains(t, fe.calls, "DeleteSecurityGroup")
}

func TestTeamSecurityGroups(t *testing.T) {
	fe := &fakeEC2{groups: []ec2types.SecurityGroup{
		{GroupName: awsv2.String("Gradr"), GroupId: awsv2.String("sg-2")},
		{GroupName: awsv2.String("default"), GroupId: awsv2.String("sg-0")},
		{GroupName: awsv2.String("Compete"), GroupId: awsv2.String("sg-1")},
	}}
	var out bytes.Buffer
	a := newTestAdmin(&fakeIAM{}, fe, &fakeCF{}, &fakeS3{}, &out)

	groups, err := a.TeamSecurityGroups(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []SecurityGroup{
		{Team: "Compete", ID: "sg-1"},
		{Team: "Gradr", ID: "sg-2"},
	}, groups)
}

func TestVerifyTemplate(t *testing.T) {
	var out bytes.Buffer
	a := newTestAdmin(&fakeIAM{}, &fakeEC2{}, &fakeCF{}, &fakeS3{}, &out)
	assert.NoError(t, a.VerifyTemplate(context.Background(), []byte("{}")))

	a = newTestAdmin(&fakeIAM{}, &fakeEC2{},
		&fakeCF{vErr: apiError("ValidationError", "bad template")}, &fakeS3{}, &out)
	assert.Error(t, a.VerifyTemplate(context.Background(), []byte("{}")))
}

func TestUploadTemplate(t *testing.T) {
	fs := &fakeS3{}
	var out bytes.Buffer
	a := newTestAdmin(&fakeIAM{}, &fakeEC2{}, &fakeCF{}, fs, &out)

	require.NoError(t, a.UploadTemplate(context.Background(),
		"course-templates", "memcached-multi", []byte("{}")))
	assert.Equal(t, "course-templates", fs.bucket)
	assert.Equal(t, "memcached-multi.json", fs.key)

	fs.err = apiError("AccessDenied", "nope")
	assert.Error(t, a.UploadTemplate(context.Background(),
		"course-templates", "default", []byte("{}")))
}

func TestGeneratePassword(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 16; i++ {
		p, err := GeneratePassword(16)
		require.NoError(t, err)
		assert.Len(t, p, 16)
		for _, c := range p {
			assert.Contains(t, passwordAlphabet, string(c))
		}
		seen[p] = true
	}
	// Vanishingly unlikely to collide.
	assert.Len(t, seen, 16)
}

func TestIssueCredentialsPasswordFailure(t *testing.T) {
	t.Chdir(t.TempDir())

	orig := randReader
	randReader = iotest.ErrReader(fmt.Errorf("entropy exhausted"))
	t.Cleanup(func() { randReader = orig })

	var out bytes.Buffer
	fi := &fakeIAM{}
	fe := &fakeEC2{}
	a := newTestAdmin(fi, fe, &fakeCF{}, &fakeS3{}, &out)

	a.issueCredentials(context.Background(), "Gradr")

	// The failure is reported like any other step and the remaining
	// credential steps still run.
	assert.Contains(t, out.String(), "Failed: CreateLoginProfile Gradr")
	assert.NotContains(t, fi.calls, "CreateLoginProfile")
	assert.Contains(t, fi.calls, "CreateAccessKey")
	assert.Contains(t, fe.calls, "CreateKeyPair")
}

func TestIsDuplicate(t *testing.T) {
	assert.True(t, isDuplicate("EntityAlreadyExists"))
	assert.True(t, isDuplicate("InvalidGroup.Duplicate"))
	assert.True(t, isDuplicate("InvalidKeyPair.Duplicate"))
	assert.True(t, isDuplicate("InvalidPermission.Duplicate"))
	assert.False(t, isDuplicate("AccessDenied"))
	assert.False(t, isDuplicate(""))
}

func TestStepOutput(t *testing.T) {
	var out bytes.Buffer
	a := newTestAdmin(&fakeIAM{}, &fakeEC2{}, &fakeCF{}, &fakeS3{}, &out)

	assert.True(t, a.step("CreateUser", "Gradr", nil))
	assert.False(t, a.step("CreateUser", "Gradr",
		apiError("EntityAlreadyExists", "exists")))
	assert.False(t, a.step("CreateUser", "Gradr",
		fmt.Errorf("network down")))

	text := out.String()
	assert.Contains(t, text, "Success: CreateUser Gradr")
	assert.Contains(t, text, "Exists: CreateUser Gradr")
	assert.Contains(t, text, "Failed: CreateUser Gradr: network down")
}
