package protocol

import "fmt"

// ProtoMask is set on the raw emsg of messages that carry a protobuf header.
const ProtoMask uint32 = 0x80000000

type EMsg uint32

const (
	EMsgInvalid                         EMsg = 0
	EMsgMulti                           EMsg = 1
	EMsgClientHeartBeat                 EMsg = 703
	EMsgClientLogOff                    EMsg = 706
	EMsgClientChangeStatus              EMsg = 716
	EMsgClientLogOnResponse             EMsg = 751
	EMsgClientLoggedOff                 EMsg = 757
	EMsgClientPersonaState              EMsg = 766
	EMsgClientChatEnter                 EMsg = 807
	EMsgClientJoinChat                  EMsg = 809
	EMsgClientChatMemberInfo            EMsg = 810
	EMsgClientChatMsg                   EMsg = 823
	EMsgChannelEncryptRequest           EMsg = 1303
	EMsgChannelEncryptResponse          EMsg = 1304
	EMsgChannelEncryptResult            EMsg = 1305
	EMsgClientLogon                     EMsg = 5514
	EMsgClientUpdateMachineAuth         EMsg = 5537
	EMsgClientUpdateMachineAuthResponse EMsg = 5538
)

var emsgNames = map[EMsg]string{
	EMsgInvalid:                         "Invalid",
	EMsgMulti:                           "Multi",
	EMsgClientHeartBeat:                 "ClientHeartBeat",
	EMsgClientLogOff:                    "ClientLogOff",
	EMsgClientChangeStatus:              "ClientChangeStatus",
	EMsgClientLogOnResponse:             "ClientLogOnResponse",
	EMsgClientLoggedOff:                 "ClientLoggedOff",
	EMsgClientPersonaState:              "ClientPersonaState",
	EMsgClientChatEnter:                 "ClientChatEnter",
	EMsgClientJoinChat:                  "ClientJoinChat",
	EMsgClientChatMemberInfo:            "ClientChatMemberInfo",
	EMsgClientChatMsg:                   "ClientChatMsg",
	EMsgChannelEncryptRequest:           "ChannelEncryptRequest",
	EMsgChannelEncryptResponse:          "ChannelEncryptResponse",
	EMsgChannelEncryptResult:            "ChannelEncryptResult",
	EMsgClientLogon:                     "ClientLogon",
	EMsgClientUpdateMachineAuth:         "ClientUpdateMachineAuth",
	EMsgClientUpdateMachineAuthResponse: "ClientUpdateMachineAuthResponse",
}

func (e EMsg) String() string {
	if name, ok := emsgNames[e]; ok {
		return name
	}
	return fmt.Sprintf("EMsg(%d)", uint32(e))
}

// UsesMsgHdr reports whether messages of this kind are framed with the bare
// MsgHdr. those are exchanged before the session exists.
func (e EMsg) UsesMsgHdr() bool {
	switch e {
	case EMsgChannelEncryptRequest, EMsgChannelEncryptResponse, EMsgChannelEncryptResult:
		return true
	}
	return false
}

type EResult int32

const (
	EResultInvalid            EResult = 0
	EResultOK                 EResult = 1
	EResultFail               EResult = 2
	EResultNoConnection       EResult = 3
	EResultInvalidPassword    EResult = 5
	EResultLoggedInElsewhere  EResult = 6
	EResultInvalidProtocolVer EResult = 7
	EResultInvalidParam       EResult = 8
	EResultFileNotFound       EResult = 9
	EResultBusy               EResult = 10
	EResultInvalidState       EResult = 11
	EResultAccessDenied       EResult = 15
	EResultTimeout            EResult = 16
	EResultBanned             EResult = 17
	EResultAccountNotFound    EResult = 18
	EResultServiceUnavailable EResult = 20
	EResultNotLoggedOn        EResult = 21
	EResultTryAnotherCM       EResult = 48
	EResultAccountLogonDenied EResult = 63
	EResultInvalidLoginCode   EResult = 65
	EResultRateLimitExceeded  EResult = 84
)

var eresultNames = map[EResult]string{
	EResultInvalid:            "Invalid",
	EResultOK:                 "OK",
	EResultFail:               "Fail",
	EResultNoConnection:       "NoConnection",
	EResultInvalidPassword:    "InvalidPassword",
	EResultLoggedInElsewhere:  "LoggedInElsewhere",
	EResultInvalidProtocolVer: "InvalidProtocolVer",
	EResultInvalidParam:       "InvalidParam",
	EResultFileNotFound:       "FileNotFound",
	EResultBusy:               "Busy",
	EResultInvalidState:       "InvalidState",
	EResultAccessDenied:       "AccessDenied",
	EResultTimeout:            "Timeout",
	EResultBanned:             "Banned",
	EResultAccountNotFound:    "AccountNotFound",
	EResultServiceUnavailable: "ServiceUnavailable",
	EResultNotLoggedOn:        "NotLoggedOn",
	EResultTryAnotherCM:       "TryAnotherCM",
	EResultAccountLogonDenied: "AccountLogonDenied",
	EResultInvalidLoginCode:   "InvalidLoginAuthCode",
	EResultRateLimitExceeded:  "RateLimitExceeded",
}

func (r EResult) String() string {
	if name, ok := eresultNames[r]; ok {
		return name
	}
	return fmt.Sprintf("EResult(%d)", int32(r))
}

type EUniverse uint32

const (
	EUniverseInvalid  EUniverse = 0
	EUniversePublic   EUniverse = 1
	EUniverseBeta     EUniverse = 2
	EUniverseInternal EUniverse = 3
	EUniverseDev      EUniverse = 4
)

type EPersonaState uint32

const (
	EPersonaStateOffline EPersonaState = iota
	EPersonaStateOnline
	EPersonaStateBusy
	EPersonaStateAway
	EPersonaStateSnooze
	EPersonaStateLookingToTrade
	EPersonaStateLookingToPlay
)

type EChatEntryType uint32

const (
	EChatEntryTypeInvalid          EChatEntryType = 0
	EChatEntryTypeChatMsg          EChatEntryType = 1
	EChatEntryTypeTyping           EChatEntryType = 2
	EChatEntryTypeInviteGame       EChatEntryType = 3
	EChatEntryTypeEmote            EChatEntryType = 4
	EChatEntryTypeLeftConversation EChatEntryType = 6
	EChatEntryTypeEntered          EChatEntryType = 7
	EChatEntryTypeWasKicked        EChatEntryType = 8
	EChatEntryTypeWasBanned        EChatEntryType = 9
	EChatEntryTypeDisconnected     EChatEntryType = 10
	EChatEntryTypeHistoricalChat   EChatEntryType = 11
)

type EChatRoomType uint32

const (
	EChatRoomTypeFriend EChatRoomType = 1
	EChatRoomTypeMUC    EChatRoomType = 2
	EChatRoomTypeLobby  EChatRoomType = 3
)

type EChatInfoType uint32

const (
	EChatInfoTypeStateChange       EChatInfoType = 1
	EChatInfoTypeInfoUpdate        EChatInfoType = 2
	EChatInfoTypeMemberLimitChange EChatInfoType = 3
)

// EChatMemberStateChange is a bit set.
type EChatMemberStateChange uint32

const (
	EChatMemberStateChangeEntered           EChatMemberStateChange = 0x01
	EChatMemberStateChangeLeft              EChatMemberStateChange = 0x02
	EChatMemberStateChangeDisconnected      EChatMemberStateChange = 0x04
	EChatMemberStateChangeKicked            EChatMemberStateChange = 0x08
	EChatMemberStateChangeBanned            EChatMemberStateChange = 0x10
	EChatMemberStateChangeVoiceSpeaking     EChatMemberStateChange = 0x1000
	EChatMemberStateChangeVoiceDoneSpeaking EChatMemberStateChange = 0x2000
)

type EChatRoomEnterResponse uint32

const (
	EChatRoomEnterResponseSuccess          EChatRoomEnterResponse = 1
	EChatRoomEnterResponseDoesntExist      EChatRoomEnterResponse = 2
	EChatRoomEnterResponseNotAllowed       EChatRoomEnterResponse = 3
	EChatRoomEnterResponseFull             EChatRoomEnterResponse = 4
	EChatRoomEnterResponseError            EChatRoomEnterResponse = 5
	EChatRoomEnterResponseBanned           EChatRoomEnterResponse = 6
	EChatRoomEnterResponseLimited          EChatRoomEnterResponse = 7
	EChatRoomEnterResponseClanDisabled     EChatRoomEnterResponse = 8
	EChatRoomEnterResponseCommunityBan     EChatRoomEnterResponse = 9
	EChatRoomEnterResponseMemberBlockedYou EChatRoomEnterResponse = 10
	EChatRoomEnterResponseYouBlockedMember EChatRoomEnterResponse = 11
)

// EChatPermission is a bit set.
type EChatPermission uint32

const (
	EChatPermissionClose            EChatPermission = 0x001
	EChatPermissionInvite           EChatPermission = 0x002
	EChatPermissionTalk             EChatPermission = 0x008
	EChatPermissionKick             EChatPermission = 0x010
	EChatPermissionMute             EChatPermission = 0x020
	EChatPermissionSetMetadata      EChatPermission = 0x040
	EChatPermissionChangePermission EChatPermission = 0x080
	EChatPermissionBan              EChatPermission = 0x100
	EChatPermissionChangeAccess     EChatPermission = 0x200
)
