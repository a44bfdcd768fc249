package protocol

import "fmt"

// SteamID packs account id (32 bits), instance (20 bits), account type (4 bits)
// and universe (8 bits) into a uint64.
type SteamID uint64

type EAccountType uint32

const (
	EAccountTypeInvalid        EAccountType = 0
	EAccountTypeIndividual     EAccountType = 1
	EAccountTypeMultiseat      EAccountType = 2
	EAccountTypeGameServer     EAccountType = 3
	EAccountTypeAnonGameServer EAccountType = 4
	EAccountTypePending        EAccountType = 5
	EAccountTypeContentServer  EAccountType = 6
	EAccountTypeClan           EAccountType = 7
	EAccountTypeChat           EAccountType = 8
	EAccountTypeConsoleUser    EAccountType = 9
	EAccountTypeAnonUser       EAccountType = 10
)

const (
	DesktopInstance uint32 = 1

	instanceMask = 0x000FFFFF

	chatInstanceFlagClan  = (instanceMask + 1) >> 1
	chatInstanceFlagLobby = (instanceMask + 1) >> 2
)

func NewSteamID(universe EUniverse, accountType EAccountType, instance, accountID uint32) SteamID {
	return SteamID(uint64(universe)<<56 |
		uint64(accountType&0xF)<<52 |
		uint64(instance&instanceMask)<<32 |
		uint64(accountID))
}

func (id SteamID) AccountID() uint32 {
	return uint32(id)
}

func (id SteamID) Instance() uint32 {
	return uint32(id>>32) & instanceMask
}

func (id SteamID) AccountType() EAccountType {
	return EAccountType(id>>52) & 0xF
}

func (id SteamID) Universe() EUniverse {
	return EUniverse(id >> 56)
}

func (id SteamID) IsValid() bool {
	return id.AccountType() != EAccountTypeInvalid && id.Universe() != EUniverseInvalid
}

var accountTypeLetters = map[EAccountType]byte{
	EAccountTypeInvalid:        'I',
	EAccountTypeIndividual:     'U',
	EAccountTypeMultiseat:      'M',
	EAccountTypeGameServer:     'G',
	EAccountTypeAnonGameServer: 'A',
	EAccountTypePending:        'P',
	EAccountTypeContentServer:  'C',
	EAccountTypeClan:           'g',
	EAccountTypeChat:           'T',
	EAccountTypeAnonUser:       'a',
}

// String renders the id in steam3 form, e.g. [U:1:46143802].
func (id SteamID) String() string {
	letter, ok := accountTypeLetters[id.AccountType()]
	if !ok {
		letter = 'i'
	}
	if id.AccountType() == EAccountTypeChat {
		switch {
		case id.Instance()&chatInstanceFlagClan != 0:
			letter = 'c'
		case id.Instance()&chatInstanceFlagLobby != 0:
			letter = 'L'
		}
	}
	return fmt.Sprintf("[%c:%d:%d]", letter, id.Universe(), id.AccountID())
}
